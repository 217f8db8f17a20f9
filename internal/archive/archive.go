package archive

import (
	"context"
	"errors"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/keeper-project/homepage-api/internal/audit"
	"github.com/keeper-project/homepage-api/internal/upload"
)

var tracer = otel.Tracer("github.com/keeper-project/homepage-api/internal/archive")

type FileMetadata struct {
	LocalFilePath *string
	Reader        io.ReadSeeker
	// Object key prefix, usually the owning entity
	Prefix   string
	Entity   audit.FileStoredEntity
	EntityID string
	Size     int64
}

// Stores a file from either a local path or a reader and emits the audit event.
// Returns the object key the file was stored under.
func StoreFile(
	ctx context.Context,
	auditContext audit.Context,
	u upload.Uploader,
	metadata *FileMetadata,
) (string, error) {
	ctx, span := tracer.Start(ctx, "StoreFile")
	defer span.End()

	var reader io.ReadSeeker
	var size int64

	switch {
	case metadata.LocalFilePath != nil:
		span.AddEvent("storing from local file")
		span.SetAttributes(attribute.String("path", *metadata.LocalFilePath))

		fstat, err := os.Stat(*metadata.LocalFilePath)
		if err != nil {
			span.SetStatus(codes.Error, "error statting file")
			span.RecordError(err)
			return "", err
		}

		f, err := os.Open(*metadata.LocalFilePath)
		if err != nil {
			span.SetStatus(codes.Error, "failed to open file for upload")
			span.RecordError(err)
			return "", err
		}
		defer f.Close()

		size = fstat.Size()
		reader = f
	case metadata.Reader != nil:
		span.AddEvent("storing from reader")
		reader = metadata.Reader
		size = metadata.Size
	default:
		err := errors.New("tried to store a file without a reader or file path")
		span.SetStatus(codes.Error, "can't store a file without a reader or file path")
		span.RecordError(err)
		return "", err
	}

	objectName, err := upload.Hashed(ctx, u, metadata.Prefix, reader, size)
	if err != nil {
		span.SetStatus(codes.Error, "failed to upload file")
		span.RecordError(err)
		return "", err
	}

	identifier, err := u.StoreIdentifier(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get identifier")
		return "", err
	}

	span.AddEvent("generating audit log message")
	audit.LogFileStored(auditContext, identifier, objectName, metadata.Entity, metadata.EntityID)

	span.SetStatus(codes.Ok, "stored file")
	return objectName, nil
}

func DeleteFile(
	ctx context.Context,
	auditContext audit.Context,
	u upload.Uploader,
	objectName string,
	entity audit.FileStoredEntity,
	entityID string,
) error {
	ctx, span := tracer.Start(ctx, "DeleteFile")
	defer span.End()

	span.SetAttributes(attribute.String("object", objectName))

	err := u.Delete(ctx, objectName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete file")
		return err
	}

	identifier, err := u.StoreIdentifier(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get identifier")
		return err
	}

	audit.LogFileDeleted(auditContext, identifier, objectName, entity, entityID)

	span.SetStatus(codes.Ok, "deleted file")
	return nil
}
