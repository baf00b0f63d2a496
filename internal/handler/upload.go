package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

const multipartMemory = 1 << 20

// readUpload читает файл из поля multipart-формы, соблюдая лимит размера.
// Тип содержимого берётся из заголовка части, а при его отсутствии определяется по данным.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, field string, allowed func(string) bool) ([]byte, string, error) {
	limit := h.opts.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", fmt.Errorf("%w: upload exceeds %d bytes", model.ErrPayloadTooLarge, limit)
		}
		return nil, "", fmt.Errorf("%w: malformed multipart form: %v", model.ErrValidation, err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("%w: form field %q is required", model.ErrValidation, field)
	}
	defer file.Close()

	if header.Size > limit {
		return nil, "", fmt.Errorf("%w: upload exceeds %d bytes", model.ErrPayloadTooLarge, limit)
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read upload: %v", model.ErrValidation, err)
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("%w: upload exceeds %d bytes", model.ErrPayloadTooLarge, limit)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: uploaded file is empty", model.ErrValidation)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !allowed(contentType) {
		return nil, "", fmt.Errorf("%w: unsupported file type %q", model.ErrValidation, contentType)
	}

	return data, contentType, nil
}

func isImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

func isReceipt(contentType string) bool {
	return isImage(contentType) || strings.HasPrefix(contentType, "application/pdf")
}
