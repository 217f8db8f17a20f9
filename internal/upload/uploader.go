package upload

import (
	"context"
	"io"
	"mime"
	"path"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/keeper-project/homepage-api/internal/hash"
)

var tracer = otel.Tracer(
	"github.com/keeper-project/homepage-api/internal/upload",
)

//go:generate mockgen -destination ./mock/mock.go -package mock . Uploader

// Generic file persistence interface
type Uploader interface {
	// Create / Overwrite file contents by `url` (blobName)
	Upload(ctx context.Context, reader io.ReadSeeker, length int64, url string) error
	// Check if a file exists (focused on preventing uploading the same file multiple times not authoritative existence)
	//
	// May always return false
	Exists(ctx context.Context, url string) (bool, error)
	// Provide an identifier for where files are being uploaded to. Useful for logging and auditing purposes.
	StoreIdentifier(ctx context.Context) (string, error)
	// Anonymous, readonly, internet accessible URL for downloading the file.
	// Browsers save the download as `downloadName` unless it is empty.
	PresignedReadURL(ctx context.Context, url string, downloadName string, duration time.Duration) (string, error)
	// Remove a file. Removing a missing file is not an error.
	Delete(ctx context.Context, url string) error
}

// Uploads a buffer under `prefix`/<sha256 of the contents of `reader`>
//
// Will:
// 1. seek to 0 so only pass in a buffer you want completely uploaded
// 2. not upload if a file with the same key already exists
//
// Two owners uploading identical content get distinct objects
func Hashed(
	ctx context.Context,
	u Uploader,
	prefix string,
	reader io.ReadSeeker,
	length int64,
) (string, error) {
	ctx, span := tracer.Start(ctx, "UploadHashed", trace.WithAttributes(
		attribute.String("prefix", prefix),
	))
	defer span.End()

	hashedContent, n, err := hash.ReadSeeker(ctx, reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to hash reader")
		return "", err
	}
	span.SetAttributes(attribute.Int64("content.length", n))

	objectName := path.Join(prefix, hashedContent)

	exists, err := u.Exists(ctx, objectName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check if file exists")
		return "", err
	}

	if exists {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "found existing file")
		return objectName, nil
	}

	err = u.Upload(ctx, reader, length, objectName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload file")
		return "", err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "uploaded file by hash")
	return objectName, nil
}

// Content-Disposition that saves a download as `name`, empty for no name
func contentDisposition(name string) string {
	if name == "" {
		return ""
	}

	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}
