package storage

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/stockroom/config"
)

// Open builds the disk named by STORAGE_DISK ("local" or "s3").
func Open(ctx context.Context) (Disk, error) {
	switch name := config.StorageDefault(); name {
	case "local":
		return NewLocal(config.StorageLocalRoot(), config.StorageURL())
	case "s3":
		return NewS3(ctx, S3Config(config.S3()))
	default:
		return nil, fmt.Errorf("storage: unknown disk %q", name)
	}
}
