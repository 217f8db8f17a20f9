package upload_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keeper-project/homepage-api/internal/config"
	"github.com/keeper-project/homepage-api/internal/upload"
)

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("Minio", func(t *testing.T) {
		u, err := upload.NewFromConfig(ctx, &config.StorageConfig{
			Backend: config.StorageBackendMinio,
			Minio: &config.MinioConfig{
				Endpoint:        "localhost:9000",
				AccessKeyID:     "id",
				SecretAccessKey: "secret",
				BucketName:      "ctf",
			},
		})
		require.NoError(t, err)
		assert.IsType(t, &upload.MinioUploader{}, u)

		id, err := u.StoreIdentifier(ctx)
		require.NoError(t, err)
		assert.Contains(t, id, "ctf")
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := upload.NewFromConfig(ctx, &config.StorageConfig{Backend: "ftp"})
		require.Error(t, err)
	})
}
