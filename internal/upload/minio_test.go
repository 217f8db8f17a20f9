package upload_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/keeper-project/homepage-api/internal/upload"
)

const (
	minioUser   = "keeper"
	minioSecret = "keeper-secret"
	minioBucket = "problems"
)

func TestMinio(t *testing.T) {
	ctx := context.Background()

	minioContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:RELEASE.2024-10-13T13-34-11Z",
			Cmd:          []string{"server", "/data"},
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioSecret,
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to make minio container")
	defer func() {
		require.NoError(t, testcontainers.TerminateContainer(minioContainer))
	}()

	endpoint, err := minioContainer.PortEndpoint(ctx, "9000/tcp", "")
	require.NoError(t, err, "failed to get minio endpoint")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioUser, minioSecret, ""),
		Secure: false,
	})
	require.NoError(t, err, "failed to make minio client")
	require.NoError(t, client.MakeBucket(ctx, minioBucket, minio.MakeBucketOptions{}))

	uploader, err := upload.NewMinioUploader(endpoint, minioUser, minioSecret, false, minioBucket)
	require.NoError(t, err, "failed to construct uploader")

	t.Run("NotExists", func(t *testing.T) {
		exists, err := uploader.Exists(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("UploadThenExists", func(t *testing.T) {
		url := uuid.NewString()
		expected := "flag{not_here}"

		err := uploader.Upload(ctx, strings.NewReader(expected), int64(len(expected)), url)
		require.NoError(t, err, "failed to upload")

		exists, err := uploader.Exists(ctx, url)
		require.NoError(t, err)
		assert.True(t, exists)

		obj, err := client.GetObject(ctx, minioBucket, url, minio.GetObjectOptions{})
		require.NoError(t, err)
		defer obj.Close()

		actual, err := io.ReadAll(obj)
		require.NoError(t, err)
		assert.Equal(t, expected, string(actual))
	})

	t.Run("Delete", func(t *testing.T) {
		url := uuid.NewString()
		err := uploader.Upload(ctx, strings.NewReader("x"), 1, url)
		require.NoError(t, err)

		require.NoError(t, uploader.Delete(ctx, url))

		exists, err := uploader.Exists(ctx, url)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, uploader.Delete(ctx, url), "deleting twice should not fail")
	})

	t.Run("PresignedReadURL", func(t *testing.T) {
		presigned, err := uploader.PresignedReadURL(ctx, "some/key", "", time.Minute)
		require.NoError(t, err)
		assert.Contains(t, presigned, "X-Amz-Signature")
		assert.NotContains(t, presigned, "response-content-disposition")

		named, err := uploader.PresignedReadURL(ctx, "some/key", "heap.tar.gz", time.Minute)
		require.NoError(t, err)
		assert.Contains(t, named, "response-content-disposition=attachment")
		assert.Contains(t, named, "heap.tar.gz")
	})

	t.Run("StoreIdentifier", func(t *testing.T) {
		ident, err := uploader.StoreIdentifier(ctx)
		require.NoError(t, err)
		assert.Equal(t, minioBucket, ident)
	})
}
