package storage

import (
	"context"
	"fmt"

	"github.com/rishitshah12/Auctave-User-sub002/internal/config"
)

// New builds the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (FileStorage, error) {
	switch cfg.Driver {
	case "minio":
		if cfg.MinIO.Endpoint == "" {
			return nil, ErrNotConfigured
		}
		return NewMinIOStorage(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Bucket, cfg.MinIO.UseSSL)
	case "gcs":
		if cfg.GCS.Bucket == "" {
			return nil, ErrNotConfigured
		}
		return NewGCSStorage(ctx, cfg.GCS.Bucket, cfg.GCS.CredentialsFile)
	case "local", "":
		return NewLocalStorage(cfg.LocalDir, cfg.PublicBase), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
