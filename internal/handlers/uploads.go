package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	appErrors "github.com/connecthq/connect/pkg/errors"
)

// UploadConfig bounds what image uploads the API accepts and where they land.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

const defaultMaxUploadBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// saveImage validates and stores an uploaded image, returning its public URL
// path. Only JPEG and PNG payloads within the size limit are accepted; the
// content type is sniffed from the bytes, not trusted from the client header.
func saveImage(file *multipart.FileHeader, cfg UploadConfig) (string, error) {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	if file.Size > maxBytes {
		return "", appErrors.NewBadRequest(fmt.Sprintf("image must be at most %d MB", maxBytes>>20))
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read upload: %w", err)
	}

	ext, ok := imageExtensions[http.DetectContentType(head[:n])]
	if !ok {
		return "", appErrors.NewBadRequest("image must be a JPEG or PNG file")
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(cfg.Dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := dst.Write(head[:n]); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if _, err := io.Copy(dst, io.LimitReader(src, maxBytes)); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return "/uploads/" + name, nil
}

// formValue trims a multipart form field, returning nil when absent.
func formValue(values map[string][]string, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	trimmed := strings.TrimSpace(v[0])
	return &trimmed
}
