package storage

import (
	"context"
	"fmt"

	"github.com/noah-isme/student-portal-api/pkg/config"
)

// New returns the object store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "", config.StorageDriverLocal:
		return NewLocalStorage(cfg.LocalDir, cfg.PublicBaseURL)
	case config.StorageDriverS3:
		return NewS3Storage(ctx, cfg.S3, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
