package app

import (
	"fmt"
	"net/http"

	"github.com/workbridge/workbridge/internal/platform/storage"
)

// NewStorage selects the upload backend. The returned handler is nil unless
// files are served by this process.
func NewStorage(cfg *Config) (storage.Storage, http.Handler, error) {
	switch cfg.StorageDriver {
	case StorageS3:
		s3, err := storage.NewS3(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			KeyID:     cfg.S3AccessKey,
			Secret:    cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, nil, err
		}
		return s3, nil, nil
	case StorageLocal, "":
		local, err := storage.NewLocal(cfg.StorageDir, cfg.StorageBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return local, local.Handler(), nil
	default:
		return nil, nil, fmt.Errorf("app: unknown storage driver %q", cfg.StorageDriver)
	}
}
