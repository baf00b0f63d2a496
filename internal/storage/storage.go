// Package storage содержит адаптеры файловых хранилищ для чеков и изображений товаров.
package storage

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

var knownExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"image/heic":      ".heic",
	"application/pdf": ".pdf",
}

// objectName возвращает уникальное имя файла с расширением по MIME-типу.
func objectName(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	ext, ok := knownExtensions[ct]
	if !ok {
		if exts, err := mime.ExtensionsByType(ct); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return uuid.NewString() + ext
}

func normalizeContentType(contentType string) string {
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", model.ErrStorage, op, err)
}

// Unconfigured используется, когда хранилище не настроено: любые операции завершаются ErrStorage.
type Unconfigured struct{}

// Store всегда возвращает ErrStorage.
func (Unconfigured) Store(context.Context, []byte, string, string) (string, error) {
	return "", fmt.Errorf("%w: blob storage is not configured", model.ErrStorage)
}

// Delete всегда возвращает ErrStorage.
func (Unconfigured) Delete(context.Context, string) error {
	return fmt.Errorf("%w: blob storage is not configured", model.ErrStorage)
}

// Backend сохраняет и удаляет файлы.
type Backend interface {
	Store(ctx context.Context, data []byte, contentType, namespace string) (string, error)
	Delete(ctx context.Context, url string) error
}

// Open выбирает хранилище по конфигурации: S3-совместимое, если задан его адрес,
// иначе Supabase, иначе Unconfigured. Вторым значением возвращается имя выбранного хранилища.
func Open(ctx context.Context, s3cfg ObjectStoreConfig, sbcfg SupabaseConfig) (Backend, string, error) {
	switch {
	case strings.TrimSpace(s3cfg.Endpoint) != "":
		s, err := NewObjectStore(ctx, s3cfg)
		if err != nil {
			return nil, "", err
		}
		return s, "s3", nil
	case strings.TrimSpace(sbcfg.URL) != "":
		s, err := NewSupabaseStore(sbcfg)
		if err != nil {
			return nil, "", err
		}
		return s, "supabase", nil
	default:
		return Unconfigured{}, "none", nil
	}
}
