package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local stores objects below a directory and serves them over HTTP.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates the root directory when missing.
func NewLocal(root, baseURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes body to a temp file and renames it into place.
func (l *Local) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	dst := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	tmp := filepath.Join(filepath.Dir(dst), ".upload-"+uuid.NewString())
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("storage: create: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("storage: write: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("storage: close: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}

// Delete removes the object. Missing objects are not an error.
func (l *Local) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return nil
}

// URL returns the public path of key.
func (l *Local) URL(key string) string {
	return l.baseURL + "/" + key
}

// Handler serves stored files.
func (l *Local) Handler() http.Handler {
	return http.FileServer(http.Dir(l.root))
}
