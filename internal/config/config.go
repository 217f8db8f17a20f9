package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/keeper-project/homepage-api/internal/logger"
	"github.com/keeper-project/homepage-api/internal/validator"
)

// Account upserted with president rights when the server starts
type AdminAccount struct {
	LoginID  string `mapstructure:"login_id"  json:"login_id"  validate:"required"`
	Email    string `mapstructure:"email"     json:"email"     validate:"required,email"`
	RealName string `mapstructure:"real_name" json:"real_name" validate:"required"`
	Password string `mapstructure:"password"  json:"-"         validate:"required,min=8"`
}

type PostgresConfig struct {
	User               string        `validate:"required"`
	Password           string        `validate:"required"`
	Host               string        `validate:"required"`
	Database           string        `validate:"required"`
	MaxIdleConnections int           `validate:"required" mapstructure:"max_idle_connections"`
	MaxOpenConnections int           `validate:"required" mapstructure:"max_open_connections"`
	ConnectionTTL      time.Duration `validate:"required" mapstructure:"connection_ttl"`
	Port               int16         `validate:"required"`
}

type SlogConfig struct {
	Level int `mapstructure:"level"`
}

type GormLogConfig struct {
	Level        int  `mapstructure:"level"`
	TraceQueries bool `mapstructure:"trace_queries"`
}

type LoggingConfig struct {
	Gorm    GormLogConfig `mapstructure:"gorm"`
	App     SlogConfig    `mapstructure:"app"`
	UseOTLP bool          `mapstructure:"use_otlp"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"  validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConfig struct {
	GlobalPerMinute int64 `mapstructure:"global_per_minute"`
	SubmitPerMinute int64 `mapstructure:"submit_per_minute"`
	FailOpen        bool  `mapstructure:"fail_open"`
}

type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"          validate:"required"`
	AccessKeyID     string `mapstructure:"access_key_id"     validate:"required"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required"`
	BucketName      string `mapstructure:"bucket_name"       validate:"required"`
	SSLEnabled      bool   `mapstructure:"ssl_enabled"`
}

type AzureStorageConfig struct {
	Name      string `mapstructure:"name"      validate:"required"`
	Key       string `mapstructure:"key"       validate:"required"`
	URL       string `mapstructure:"url"       validate:"required"`
	Container string `mapstructure:"container" validate:"required"`
	Dev       bool   `mapstructure:"dev"`
}

const (
	StorageBackendMinio = "minio"
	StorageBackendAzure = "azure"
)

type StorageConfig struct {
	Minio      *MinioConfig        `mapstructure:"minio"       validate:"required_if=Backend minio"`
	Azure      *AzureStorageConfig `mapstructure:"azure"       validate:"required_if=Backend azure"`
	Backend    string              `mapstructure:"backend"     validate:"required,oneof=minio azure"`
	PresignTTL time.Duration       `mapstructure:"presign_ttl" validate:"required"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret" validate:"required,min=32"`
	Issuer string        `mapstructure:"issuer" validate:"required"`
	TTL    time.Duration `mapstructure:"ttl"    validate:"required"`
}

type ScoringConfig struct {
	// Points a dynamic problem loses per additional solver when the problem does not set its own
	Decay int64 `mapstructure:"decay"             validate:"gte=0"`
	// Floor of a dynamic problem as a percentage of its base score
	MinScorePercent int64 `mapstructure:"min_score_percent" validate:"gte=0,lte=100"`
}

type CTFConfig struct {
	Scoring ScoringConfig `mapstructure:"scoring"`
}

type LibraryConfig struct {
	MaxCopies int64 `mapstructure:"max_copies" validate:"gte=1"`
	LoanDays  int   `mapstructure:"loan_days"  validate:"gte=1"`
}

type MailConfig struct {
	RelayURL string `mapstructure:"relay_url" validate:"omitempty,url"`
	From     string `mapstructure:"from"      validate:"required,email"`
	Dev      bool   `mapstructure:"dev"`
}

// See keeper.example.yaml for an example config
type Config struct {
	Postgres             *PostgresConfig  `mapstructure:"postgres"               validate:"required"`
	Logging              *LoggingConfig   `mapstructure:"logging"                validate:"required"`
	Redis                *RedisConfig     `mapstructure:"redis"                  validate:"required"`
	RateLimit            *RateLimitConfig `mapstructure:"ratelimit"`
	Storage              *StorageConfig   `mapstructure:"storage"                validate:"required"`
	JWT                  *JWTConfig       `mapstructure:"jwt"                    validate:"required"`
	Mail                 *MailConfig      `mapstructure:"mail"                   validate:"required"`
	CTF                  CTFConfig        `mapstructure:"ctf"`
	Library              LibraryConfig    `mapstructure:"library"`
	ListenAddress        string           `mapstructure:"listen_address"         validate:"required"`
	Admins               []AdminAccount   `mapstructure:"admins"                 validate:"dive"`
	GracefulShutdownSecs int64            `mapstructure:"graceful_shutdown_secs"`
}

const (
	AppLogLevel                string = "logging.app.level"
	EnvPrefix                  string = "keeper"
	UseOTLP                    string = "logging.use_otlp"
	GlobalPerMinute            string = "ratelimit.global_per_minute"
	GormLogLevel               string = "logging.gorm.level"
	GormTraceQueries           string = "logging.gorm.trace_queries"
	GracefulShutdownSecs       string = "graceful_shutdown_secs"
	JWTSecret                  string = "jwt.secret" // #nosec
	JWTIssuer                  string = "jwt.issuer"
	JWTTTL                     string = "jwt.ttl"
	ListenAddress              string = "listen_address"
	LibraryLoanDays            string = "library.loan_days"
	LibraryMaxCopies           string = "library.max_copies"
	MailDev                    string = "mail.dev"
	MailFrom                   string = "mail.from"
	MailRelayURL               string = "mail.relay_url"
	PostgresDatabase           string = "postgres.database"
	PostgresHost               string = "postgres.host"
	PostgresPassword           string = "postgres.password"
	PostgresPort               string = "postgres.port"
	PostgresUser               string = "postgres.user"
	PostgresMaxIdleConnections string = "postgres.max_idle_connections"
	PostgresMaxOpenConnections string = "postgres.max_open_connections"
	PostgresConnectonTTL       string = "postgres.connection_ttl"
	RateLimitFailOpen          string = "ratelimit.fail_open"
	RedisAddress               string = "redis.address"
	RedisPassword              string = "redis.password"
	ScoringDecay               string = "ctf.scoring.decay"
	ScoringMinScorePercent     string = "ctf.scoring.min_score_percent"
	StorageAzureKey            string = "storage.azure.key"
	StorageBackend             string = "storage.backend"
	StorageMinioAccessKeyID    string = "storage.minio.access_key_id"
	StorageMinioBucketName     string = "storage.minio.bucket_name"
	StorageMinioEndpoint       string = "storage.minio.endpoint"
	StorageMinioSecretKey      string = "storage.minio.secret_access_key" // #nosec
	StorageMinioSSLEnabled     string = "storage.minio.ssl_enabled"
	StoragePresignTTL          string = "storage.presign_ttl"
	SubmitPerMinute            string = "ratelimit.submit_per_minute"
)

var configReady = false
var config Config

// Loads the config once per process
func GetConfig() (*Config, error) {
	if configReady {
		logger.Logger.Debug("returning already-loaded config")
		return &config, nil
	}
	logger.Logger.Info("loading config")

	loaded, err := Load("/etc/keeper/", ".")
	if err != nil {
		configReady = false
		return nil, err
	}

	config = *loaded
	configReady = true
	return &config, nil
}

// Reads keeper.yaml from the first of `paths` that has one, overlays KEEPER_* env vars and validates the result
func Load(paths ...string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("keeper")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AutomaticEnv()

	// workaround for https://github.com/spf13/viper/issues/761
	// bind env vars explicitly so they unmarshal into the nested struct
	for _, key := range []string{
		PostgresUser,
		PostgresPassword,
		PostgresDatabase,
		RedisAddress,
		RedisPassword,
		JWTSecret,
		StorageBackend,
		StorageAzureKey,
		StorageMinioEndpoint,
		StorageMinioBucketName,
		StorageMinioAccessKeyID,
		StorageMinioSecretKey,
		MailFrom,
		MailRelayURL,
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	v.SetDefault(ListenAddress, "[::]:8080")
	v.SetDefault(PostgresHost, "localhost")
	v.SetDefault(PostgresPort, 5432)
	v.SetDefault(PostgresMaxIdleConnections, 2)
	v.SetDefault(PostgresMaxOpenConnections, 10)
	v.SetDefault(PostgresConnectonTTL, 10*time.Minute)
	v.SetDefault(GormLogLevel, int(slog.LevelDebug))
	v.SetDefault(GormTraceQueries, false)
	v.SetDefault(AppLogLevel, int(slog.LevelDebug))
	v.SetDefault(UseOTLP, false)

	v.SetDefault(RedisAddress, "localhost:6379")
	v.SetDefault(GlobalPerMinute, 0)
	v.SetDefault(SubmitPerMinute, 0)
	v.SetDefault(RateLimitFailOpen, true)

	v.SetDefault(StorageBackend, StorageBackendMinio)
	v.SetDefault(StorageMinioSSLEnabled, true)
	v.SetDefault(StoragePresignTTL, 15*time.Minute)

	v.SetDefault(JWTIssuer, "keeper")
	v.SetDefault(JWTTTL, 12*time.Hour)

	v.SetDefault(ScoringDecay, 50)
	v.SetDefault(ScoringMinScorePercent, 20)

	v.SetDefault(LibraryMaxCopies, 4)
	v.SetDefault(LibraryLoanDays, 14)

	v.SetDefault(MailDev, false)

	v.SetDefault(GracefulShutdownSecs, 30)

	err := v.ReadInConfig()
	if err != nil {
		// ignore config file not found to allow pure env config
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	err = v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	valid := validator.Create()
	err = valid.Validate(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		url.QueryEscape(c.Postgres.User),
		url.QueryEscape(c.Postgres.Password),
		c.Postgres.Host, c.Postgres.Port,
		url.QueryEscape(c.Postgres.Database),
	)
}
