package store

import (
	"context"
	"fmt"
	"os"

	"snapsync/internal/config"
	"snapsync/internal/snap"
)

// NewStoreFromConfig creates an ObjectStore based on the settings' store
// type. The s3 backend additionally honors AWS_ACCESS_KEY_ID and
// AWS_SECRET_ACCESS_KEY from the process environment when both are set.
func NewStoreFromConfig(ctx context.Context, settings *config.Settings, cfg *config.Config) (snap.ObjectStore, error) {
	switch settings.Store {
	case "", "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 store requires S3_BUCKET to be configured")
		}
		return NewS3Store(ctx, s3Options(cfg))
	case "filesystem":
		if settings.StoreRoot == "" {
			return nil, fmt.Errorf("filesystem store requires store_root to be set")
		}
		return NewFileSystemStore("local", settings.StoreRoot)
	case "memory":
		return NewMemoryStore("memory"), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", settings.Store)
	}
}

// NewIdentityCheckerFromConfig creates the AWS identity checker for the
// configured region/profile.
func NewIdentityCheckerFromConfig(ctx context.Context, cfg *config.Config) (snap.IdentityChecker, error) {
	return NewSTSIdentityChecker(ctx, s3Options(cfg))
}

func s3Options(cfg *config.Config) S3Options {
	return S3Options{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.AWSRegion,
		Profile:         cfg.AWSProfile,
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
}
