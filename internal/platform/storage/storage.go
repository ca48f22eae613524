// Package storage persists uploaded files on local disk or S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidKey is returned for keys that escape the storage root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Storage stores and removes objects addressed by slash-separated keys.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned != key || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
