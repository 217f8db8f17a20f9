package otel

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Text map carrier backed by prefixed environment variables.
//
// Lets a CLI invocation (cron, CI job) join the trace of whatever launched it:
// the launcher exports KEEPER_OTEL_TRACEPARENT and the CLI extracts it.
// Values set explicitly take precedence over the environment.
type EnvCarrier struct {
	vars map[string]string
}

var _ propagation.TextMapCarrier = (*EnvCarrier)(nil)

func CreateEnvCarrier() EnvCarrier {
	return EnvCarrier{vars: make(map[string]string)}
}

const envPrefix = "KEEPER_OTEL_"

func mapKey(key string) string {
	return fmt.Sprintf("%s%s", envPrefix, strings.ToUpper(strings.ReplaceAll(key, "-", "_")))
}

func unmapKey(mappedKey string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(mappedKey, envPrefix), "_", "-"))
}

func (c EnvCarrier) Get(key string) string {
	key = mapKey(key)
	if v, ok := c.vars[key]; ok {
		return v
	}

	return os.Getenv(key)
}

func (c EnvCarrier) Set(key string, value string) {
	c.vars[mapKey(key)] = value
}

func (c EnvCarrier) Keys() []string {
	keysSet := make(map[string]struct{}, len(c.vars))

	for name := range c.vars {
		keysSet[unmapKey(name)] = struct{}{}
	}

	for _, env := range os.Environ() {
		name, _, _ := strings.Cut(env, "=")
		if !strings.HasPrefix(name, envPrefix) {
			continue
		}

		keysSet[unmapKey(name)] = struct{}{}
	}

	keys := make([]string, 0, len(keysSet))
	for k := range keysSet {
		keys = append(keys, k)
	}

	return keys
}

// Returns ctx with any span context found in the environment attached
func ContextFromEnv(ctx context.Context) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, CreateEnvCarrier())
}
