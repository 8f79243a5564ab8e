package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/league"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/report"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable, e.g. RUNCREATION_SERVER_ADDR
const Prefix = "RUNCREATION"

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string        `envconfig:"ADDR" default:":8080" validate:"required"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL      string `envconfig:"URL" default:"localhost:6380"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0" validate:"gte=0"`

	ConnectAttempts int           `envconfig:"CONNECT_ATTEMPTS" default:"5" validate:"gte=1"`
	ConnectDelay    time.Duration `envconfig:"CONNECT_DELAY" default:"1s"`
}

// PostgresConfig holds the tally store connection. An empty DSN disables it.
type PostgresConfig struct {
	DSN     string `envconfig:"DSN"`
	Migrate bool   `envconfig:"MIGRATE" default:"true"`
}

// InputConfig locates the league exports
type InputConfig struct {
	Base    string `envconfig:"BASE" default:"." validate:"required"`
	Aliases string `envconfig:"ALIASES"`
	TeamMin int    `envconfig:"TEAM_MIN" default:"1" validate:"gte=0"`
	TeamMax int    `envconfig:"TEAM_MAX" default:"24" validate:"gtefield=TeamMin"`
	Workers int    `envconfig:"WORKERS" default:"1" validate:"gte=1"`
}

// ReportConfig controls report outputs
type ReportConfig struct {
	Output string `envconfig:"OUTPUT" default:"out/csv_out/z_ABL_Run_Creation_Profile.csv"`
	XLSX   string `envconfig:"XLSX"`
}

// StreamConfig controls the report stream and live feed.
// Every serve instance needs its own ConsumerGroup to see every report.
type StreamConfig struct {
	MaxLen            int64         `envconfig:"MAX_LEN" default:"1000"`
	HeartbeatInterval time.Duration `envconfig:"HEARTBEAT_INTERVAL" default:"30s"`
	ConsumerGroup     string        `envconfig:"CONSUMER_GROUP" default:"run-creation-feed" validate:"required"`
	ConsumerID        string        `envconfig:"CONSUMER_ID" default:"feed-1" validate:"required"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `envconfig:"FORMAT" default:"text" validate:"oneof=text json"`
}

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `envconfig:"SERVER"`
	Redis    RedisConfig    `envconfig:"REDIS"`
	Postgres PostgresConfig `envconfig:"POSTGRES"`
	Input    InputConfig    `envconfig:"INPUT"`
	Report   ReportConfig   `envconfig:"REPORT"`
	Stream   StreamConfig   `envconfig:"STREAM"`
	Log      LogConfig      `envconfig:"LOG"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints; flag overrides call it again
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// TeamRange returns the configured league id bounds
func (c *Config) TeamRange() league.TeamRange {
	return league.TeamRange{Min: models.TeamID(c.Input.TeamMin), Max: models.TeamID(c.Input.TeamMax)}
}

// OutputPath resolves the CSV output against the input base, unless absolute
func (c *Config) OutputPath() string {
	out := c.Report.Output
	if out == "" {
		out = report.DefaultOutput
	}
	return resolve(c.Input.Base, out)
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
