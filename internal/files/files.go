// Package files stores user and skill uploads through a storage backend and
// keeps the owning row pointing at the latest object.
package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/workbridge/workbridge/internal/platform/storage"
	"github.com/workbridge/workbridge/internal/shared"
)

// FormField is the multipart field carrying the upload.
const FormField = "file"

// Kind describes one upload slot.
type Kind struct {
	Folder   string
	Prefix   string
	MaxBytes int64
	// Types maps accepted sniffed content types to the stored extension.
	Types map[string]string
}

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Upload slots.
var (
	UserImage  = Kind{Folder: "usersImage", Prefix: "user", MaxBytes: 5 << 20, Types: imageTypes}
	UserPDF    = Kind{Folder: "usersPDF", Prefix: "user", MaxBytes: 10 << 20, Types: map[string]string{"application/pdf": ".pdf"}}
	SkillImage = Kind{Folder: "skillImage", Prefix: "skill", MaxBytes: 5 << 20, Types: imageTypes}
)

// Key builds the object key prefix_id_unixmillis.ext inside the kind's folder.
func (k Kind) Key(id int64, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%s_%d_%d%s", k.Folder, k.Prefix, id, at.UnixMilli(), ext)
}

// SwapFunc stores key on the owning row and returns the key it replaced.
// An empty key clears the slot.
type SwapFunc func(ctx context.Context, key string) (old string, err error)

// Service saves uploads and removes the objects they replace.
type Service struct {
	store  storage.Storage
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(store storage.Storage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// URL returns the public address of key, or "" for an empty key.
func (s *Service) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.store.URL(key)
}

// Replace reads the multipart upload from r, stores it and swaps it onto the
// owning row. The previous object is deleted once the row points at the new
// one. The returned value is the public URL of the new object.
func (s *Service) Replace(ctx context.Context, r *http.Request, kind Kind, id int64, swap SwapFunc) (string, error) {
	body, contentType, err := readUpload(r, kind)
	if err != nil {
		return "", err
	}
	key := kind.Key(id, s.now(), kind.Types[contentType])
	if err := s.store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), contentType); err != nil {
		return "", fmt.Errorf("files: store %s: %w", key, err)
	}
	old, err := swap(ctx, key)
	if err != nil {
		s.Remove(ctx, key)
		return "", err
	}
	s.Remove(ctx, old)
	return s.store.URL(key), nil
}

// Clear empties the slot and deletes its object.
func (s *Service) Clear(ctx context.Context, swap SwapFunc) error {
	old, err := swap(ctx, "")
	if err != nil {
		return err
	}
	s.Remove(ctx, old)
	return nil
}

// Remove deletes key, logging failures. Empty keys are ignored.
func (s *Service) Remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("delete stale upload", slog.String("key", key), slog.Any("error", err))
	}
}

func readUpload(r *http.Request, kind Kind) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, kind.MaxBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", fmt.Errorf("%w: file exceeds %d bytes", shared.ErrInvalidInput, kind.MaxBytes)
		}
		return nil, "", fmt.Errorf("%w: expected multipart form", shared.ErrInvalidInput)
	}
	file, header, err := r.FormFile(FormField)
	if err != nil {
		return nil, "", fmt.Errorf("%w: missing %q upload", shared.ErrInvalidInput, FormField)
	}
	defer file.Close()
	if header.Size > kind.MaxBytes {
		return nil, "", fmt.Errorf("%w: file exceeds %d bytes", shared.ErrInvalidInput, kind.MaxBytes)
	}
	body, err := io.ReadAll(io.LimitReader(file, kind.MaxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("files: read upload: %w", err)
	}
	if int64(len(body)) > kind.MaxBytes {
		return nil, "", fmt.Errorf("%w: file exceeds %d bytes", shared.ErrInvalidInput, kind.MaxBytes)
	}
	contentType := http.DetectContentType(body)
	if _, ok := kind.Types[contentType]; !ok {
		return nil, "", fmt.Errorf("%w: unsupported file type %s", shared.ErrInvalidInput, contentType)
	}
	return body, contentType, nil
}
