package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/sethvargo/go-retry"

	"github.com/keeper-project/homepage-api/internal/config"
)

// Short backoff for uploads made while a request is waiting
func RequestBackoff() retry.Backoff {
	b := retry.NewFibonacci(time.Millisecond * 25)
	b = retry.WithMaxRetries(3, b)
	return b
}

// Builds the configured backend without retries
func NewFromConfig(ctx context.Context, cfg *config.StorageConfig) (Uploader, error) {
	switch cfg.Backend {
	case config.StorageBackendMinio:
		return NewMinioUploader(
			cfg.Minio.Endpoint,
			cfg.Minio.AccessKeyID,
			cfg.Minio.SecretAccessKey,
			cfg.Minio.SSLEnabled,
			cfg.Minio.BucketName,
		)
	case config.StorageBackendAzure:
		uploader, err := NewAzureUploader(cfg.Azure.Name, cfg.Azure.Key, cfg.Azure.URL, cfg.Azure.Container)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize azure uploader: %w", err)
		}

		if cfg.Azure.Dev {
			_, err = uploader.client.CreateContainer(ctx, cfg.Azure.Container, nil)
			if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
				return nil, fmt.Errorf("failed to create dev container: %w", err)
			}
		}

		return uploader, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
