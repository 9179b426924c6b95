package storage

import (
	"context"
	"errors"
	"fmt"

	"atmodensity/internal/config"
)

// DeploymentMode selects where batch artifacts are published
type DeploymentMode string

const (
	DeploymentNone  DeploymentMode = "none"
	DeploymentLocal DeploymentMode = "local"
	DeploymentGCS   DeploymentMode = "gcs"
	DeploymentMinIO DeploymentMode = "minio"
)

// ErrPublishingDisabled is returned by NewStorageClient for DeploymentNone
var ErrPublishingDisabled = errors.New("publishing disabled")

// NewStorageClient creates a storage client based on deployment mode and configuration
func NewStorageClient(ctx context.Context, mode DeploymentMode, cfg *config.Config) (StorageClient, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}

	switch mode {
	case DeploymentNone, "":
		return nil, ErrPublishingDisabled

	case DeploymentLocal:
		localClient, err := NewLocalStorageClient(cfg.PublishDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage client: %w", err)
		}
		return localClient, nil

	case DeploymentGCS:
		gcsClient, err := NewGCSClient(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
		}
		return gcsClient, nil

	case DeploymentMinIO:
		minioClient, err := NewMinIOClient(ctx, MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Region:    cfg.MinIORegion,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
		}
		return minioClient, nil

	default:
		return nil, fmt.Errorf("unsupported deployment mode: %s", mode)
	}
}
