package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestEnvCarrier(t *testing.T) {
	t.Run("ImplementsInterface", func(*testing.T) {
		var _ propagation.TextMapCarrier = CreateEnvCarrier()
	})

	t.Run("RoundTrip", func(t *testing.T) {
		var e propagation.TextMapCarrier = CreateEnvCarrier()

		e.Set("a", "b")

		assert.Equal(t, "b", e.Get("a"), "failed to retrieve set value")
		assert.Contains(t, e.Keys(), "a", "failed to get set keys")
	})

	t.Run("FromEnv", func(t *testing.T) {
		var e propagation.TextMapCarrier = CreateEnvCarrier()

		t.Setenv(mapKey("from-env"), "b")

		assert.Equal(t, "b", e.Get("from-env"), "failed to get from env")
		assert.Contains(t, e.Keys(), "from-env", "failed to get env keys")
	})

	t.Run("SetOverridesEnv", func(t *testing.T) {
		e := CreateEnvCarrier()

		t.Setenv(mapKey("shadowed"), "env")
		e.Set("shadowed", "explicit")

		assert.Equal(t, "explicit", e.Get("shadowed"))
	})
}

func TestContextFromEnv(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Run("NoParent", func(t *testing.T) {
		ctx := ContextFromEnv(context.Background())
		assert.False(t, trace.SpanContextFromContext(ctx).IsValid())
	})

	t.Run("WithParent", func(t *testing.T) {
		t.Setenv(mapKey("traceparent"), "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

		ctx := ContextFromEnv(context.Background())
		sc := trace.SpanContextFromContext(ctx)

		assert.True(t, sc.IsValid())
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())
	})
}
