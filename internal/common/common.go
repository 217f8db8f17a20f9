// Package common holds small helpers shared by the service packages.
package common

import (
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Span attribute listing `ids`
func IDsAttribute(key string, ids []uuid.UUID) attribute.KeyValue {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = id.String()
	}

	return attribute.StringSlice(key, values)
}
