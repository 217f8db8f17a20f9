package types

import (
	"encoding/json"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/keeper-project/homepage-api/internal/types")

// Field of a partial update body that tracks whether the key was present
type Optional[T any] struct {
	Value   *T
	Defined bool
}

// UnmarshalJSON is implemented by deferring to the wrapped type (T).
// It will be called only if the value is defined in the JSON payload.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Defined = true
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Defined || o.Value == nil {
		return []byte("null"), nil
	}

	return json.Marshal(o.Value)
}

// Value when defined and non null, `current` otherwise
func (o Optional[T]) Or(current T) T {
	if !o.Defined || o.Value == nil {
		return current
	}

	return *o.Value
}

func NewFromVal[T any](v T) Optional[T] {
	return Optional[T]{Defined: true, Value: &v}
}
