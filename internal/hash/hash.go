// Package hash names stored attachments by their content.
package hash

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/keeper-project/homepage-api/internal/hash")

// Hex sha256 of whatever is left in `r`, along with how many bytes that was
func Reader(ctx context.Context, r io.Reader) (string, int64, error) {
	_, span := tracer.Start(ctx, "Reader")
	defer span.End()

	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read content")
		return "", n, err
	}

	sum := hex.EncodeToString(h.Sum(nil))
	span.AddEvent("digested", trace.WithAttributes(
		attribute.String("sum", sum),
		attribute.Int64("bytes", n),
	))

	return sum, n, nil
}

// Hashes all of `r` from the start and leaves it rewound
func ReadSeeker(ctx context.Context, r io.ReadSeeker) (string, int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", 0, err
	}

	sum, n, err := Reader(ctx, r)
	if err != nil {
		return "", n, err
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", n, err
	}

	return sum, n, nil
}

func Buffer(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
