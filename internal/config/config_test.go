package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
postgres:
  user: keeper
  password: keeper
  database: keeper
logging:
  use_otlp: false
redis:
  address: redis:6379
storage:
  backend: minio
  minio:
    endpoint: minio:9000
    access_key_id: id
    secret_access_key: secret
    bucket_name: ctf
jwt:
  secret: 0123456789abcdef0123456789abcdef
mail:
  from: noreply@keeper.or.kr
  dev: true
admins:
  - login_id: president
    email: president@keeper.or.kr
    real_name: President
    password: correct horse battery
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keeper.yaml"), []byte(content), 0o600))

	return dir
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, validYAML))
		require.NoError(t, err)

		assert.Equal(t, "[::]:8080", cfg.ListenAddress)
		assert.Equal(t, "localhost", cfg.Postgres.Host)
		assert.EqualValues(t, 5432, cfg.Postgres.Port)
		assert.Equal(t, 15*time.Minute, cfg.Storage.PresignTTL)
		assert.Equal(t, 12*time.Hour, cfg.JWT.TTL)
		assert.EqualValues(t, 50, cfg.CTF.Scoring.Decay)
		assert.EqualValues(t, 20, cfg.CTF.Scoring.MinScorePercent)
		assert.EqualValues(t, 4, cfg.Library.MaxCopies)
		assert.Equal(t, 14, cfg.Library.LoanDays)
		assert.True(t, cfg.RateLimit.FailOpen)
		require.Len(t, cfg.Admins, 1)
		assert.Equal(t, "president", cfg.Admins[0].LoginID)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("KEEPER_POSTGRES_PASSWORD", "from-env")
		t.Setenv("KEEPER_CTF_SCORING_DECAY", "10")

		cfg, err := Load(writeConfig(t, validYAML))
		require.NoError(t, err)

		assert.Equal(t, "from-env", cfg.Postgres.Password)
		assert.EqualValues(t, 10, cfg.CTF.Scoring.Decay)
	})

	t.Run("InvalidBackend", func(t *testing.T) {
		t.Setenv("KEEPER_STORAGE_BACKEND", "ftp")

		_, err := Load(writeConfig(t, validYAML))
		require.Error(t, err)
	})

	t.Run("AzureBackendRequiresAzureSection", func(t *testing.T) {
		t.Setenv("KEEPER_STORAGE_BACKEND", "azure")

		_, err := Load(writeConfig(t, validYAML))
		require.Error(t, err)
	})

	t.Run("ShortJWTSecret", func(t *testing.T) {
		t.Setenv("KEEPER_JWT_SECRET", "short")

		_, err := Load(writeConfig(t, validYAML))
		require.Error(t, err)
	})
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{Postgres: &PostgresConfig{
		User:     "user",
		Password: "p@ss word",
		Host:     "db",
		Port:     5433,
		Database: "keeper",
	}}

	assert.Equal(t, "postgresql://user:p%40ss+word@db:5433/keeper", cfg.PostgresDSN())
}
