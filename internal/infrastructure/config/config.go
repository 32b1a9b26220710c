package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	LogLevel  string `env:"LOG_LEVEL,  default=info" validate:"oneof=trace debug info warn warning error"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	GLAuth        GLAuthConfig
	Elasticsearch ElasticsearchConfig
	Identity      IdentityConfig
	Mongo         MongoConfig
	Metrics       MetricsConfig
	Server        ServerConfig
}

type GLAuthConfig struct {
	MinUID       uint64 `env:"GLAUTH_MIN_UID,              required"`
	PrimaryGroup uint64 `env:"GLAUTH_PRIMARY_GROUP,        required"`
	TemplatePath string `env:"GLAUTH_CONFIG_TEMPLATE_PATH, required" validate:"required"`
	ConfigPath   string `env:"GLAUTH_CONFIG_PATH,          required" validate:"required"`
	LogDiff      bool   `env:"GLAUTH_LOG_DIFF,             default=true"`
}

type ElasticsearchConfig struct {
	URL      string `env:"ELASTICSEARCH_URL,      required" validate:"required,url"`
	User     string `env:"ELASTICSEARCH_USER,     required" validate:"required"`
	Password string `env:"ELASTICSEARCH_PASSWORD, required"`
	// Timeout is in seconds.
	Timeout uint `env:"ELASTICSEARCH_TIMEOUT, default=10" validate:"gt=0"`
}

// TimeoutDuration returns the per-request timeout.
func (c ElasticsearchConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

type IdentityConfig struct {
	Backend       string `env:"IDENTITY_BACKEND,     default=file"                 validate:"oneof=file redis"`
	Path          string `env:"GLAUTH_DATABASE_PATH, default=glauth-database.json" validate:"required_if=Backend file"`
	RedisAddr     string `env:"REDIS_ADDR,           default=localhost:6379"       validate:"required_if=Backend redis"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,             default=0"                    validate:"gte=0"`
	RedisKey      string `env:"REDIS_KEY,            default=glauth:identities"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=glauth_sync" validate:"required_with=URI"`
}

// Enabled reports whether run audits go to MongoDB.
func (c MongoConfig) Enabled() bool { return c.URI != "" }

type MetricsConfig struct {
	// Textfile, when set, receives the metrics after a one-shot run in the
	// node exporter textfile format.
	Textfile string `env:"METRICS_TEXTFILE"`
}

type ServerConfig struct {
	Port      string        `env:"HTTP_PORT,     default=8080"`
	Interval  time.Duration `env:"SYNC_INTERVAL, default=5m" validate:"gt=0"`
	JWTSecret string        `env:"JWT_SECRET"`
}

// LoadEnvFile loads a dotenv file into the process environment. With an
// empty path, .env in the working directory is loaded if it exists.
func LoadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("config: load %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load .env: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith is Load with an explicit lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
