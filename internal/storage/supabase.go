package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SupabaseConfig содержит параметры Supabase Storage.
type SupabaseConfig struct {
	URL          string
	Key          string
	BucketPrefix string
}

// SupabaseStore хранит файлы в Supabase Storage через REST API.
// Пространство имён соответствует бакету.
type SupabaseStore struct {
	baseURL      string
	key          string
	bucketPrefix string
	httpClient   *http.Client
}

// NewSupabaseStore создаёт HTTP-клиент Supabase Storage по указанному адресу проекта.
func NewSupabaseStore(cfg SupabaseConfig) (*SupabaseStore, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("supabase key is required")
	}

	return &SupabaseStore{
		baseURL:      base,
		key:          strings.TrimSpace(cfg.Key),
		bucketPrefix: strings.TrimSpace(cfg.BucketPrefix),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (s *SupabaseStore) bucket(namespace string) string {
	return s.bucketPrefix + strings.Trim(namespace, "/")
}

// PublicURL возвращает публичный адрес файла в бакете.
func (s *SupabaseStore) PublicURL(bucket, name string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, bucket, name)
}

// Store загружает файл в бакет namespace и возвращает его публичный адрес.
func (s *SupabaseStore) Store(ctx context.Context, data []byte, contentType, namespace string) (string, error) {
	bucket := s.bucket(namespace)
	name := objectName(contentType)
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, bucket, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", storageError("create request", err)
	}
	s.authorize(req)
	req.Header.Set("Content-Type", normalizeContentType(contentType))

	if err := s.do(req); err != nil {
		return "", storageError("upload", err)
	}

	return s.PublicURL(bucket, name), nil
}

// Delete удаляет файл по его публичному адресу.
func (s *SupabaseStore) Delete(ctx context.Context, raw string) error {
	prefix := s.baseURL + "/storage/v1/object/public/"
	if !strings.HasPrefix(raw, prefix) {
		return storageError("delete", fmt.Errorf("unmanaged url %q", raw))
	}
	path := strings.TrimPrefix(raw, prefix)
	if !strings.Contains(path, "/") {
		return storageError("delete", fmt.Errorf("url %q has no object name", raw))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/storage/v1/object/"+path, nil)
	if err != nil {
		return storageError("create request", err)
	}
	s.authorize(req)

	if err := s.do(req); err != nil {
		return storageError("delete", err)
	}
	return nil
}

func (s *SupabaseStore) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("apikey", s.key)
}

func (s *SupabaseStore) do(req *http.Request) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status: %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
