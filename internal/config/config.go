package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // APP_TIMEZONE must resolve in minimal images

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	AI      AIConfig
	Tracing TracingConfig
	Log     LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
	// Timezone decides which calendar day counts as today for expiry checks.
	Timezone string `envconfig:"APP_TIMEZONE" default:"UTC"`
}

// Location resolves Timezone.
func (c ServerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
type DBConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	User           string `envconfig:"DB_USER" default:"postgres"`
	Password       string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name           string `envconfig:"DB_NAME" default:"coupon_db"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns       int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns       int    `envconfig:"DB_MIN_CONNS" default:"5"`
	ConnectRetries int    `envconfig:"DB_CONNECT_RETRIES" default:"5"`
	AutoMigrate    bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// AIConfig holds settings of the text-generation collaborator.
type AIConfig struct {
	APIKey  string        `envconfig:"OPENAI_API_KEY"`
	BaseURL string        `envconfig:"OPENAI_BASE_URL"`
	Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo-instruct"`
	Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"15s"`
	// ValidationEnabled selects AI-assisted matching for code validation.
	ValidationEnabled bool `envconfig:"USE_AI_VALIDATION" default:"false"`
}

// TracingConfig holds OpenTelemetry export settings.
type TracingConfig struct {
	Enabled        bool    `envconfig:"TRACING_ENABLED" default:"false"`
	JaegerEndpoint string  `envconfig:"JAEGER_ENDPOINT" default:"http://localhost:14268/api/traces"`
	ServiceName    string  `envconfig:"TRACING_SERVICE_NAME" default:"ai-coupon-service"`
	SampleRatio    float64 `envconfig:"TRACING_SAMPLE_RATIO" default:"1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
