package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"climate-platform/pkg/database"
	"climate-platform/pkg/logging"
)

// EnvPrefix prefixes every environment variable, e.g. CLIMATE_SERVER_PORT
const EnvPrefix = "CLIMATE"

// ConfigFileEnv names the optional YAML overlay file
const ConfigFileEnv = "CLIMATE_CONFIG_FILE"

// Source selects where the API server reads records from
const (
	SourcePostgres = "postgres"
	SourceFiles    = "files"
)

// Config is the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Ingest   IngestConfig   `yaml:"ingest" envconfig:"INGEST"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST" default:"0.0.0.0"`
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig contains Postgres connection and pool settings
type DatabaseConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST" default:"localhost"`
	Port            int           `yaml:"port" envconfig:"PORT" default:"5432"`
	User            string        `yaml:"user" envconfig:"USER" default:"postgres"`
	Password        string        `yaml:"password" envconfig:"PASSWORD"`
	Database        string        `yaml:"database" envconfig:"NAME" default:"climate"`
	SSLMode         string        `yaml:"sslmode" envconfig:"SSLMODE" default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" envconfig:"CONN_MAX_IDLE_TIME" default:"1m"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LEVEL" default:"info"`
}

// DataConfig locates the catalog and source files and holds build defaults
type DataConfig struct {
	CatalogPath               string  `yaml:"catalog_path" envconfig:"CATALOG_PATH" default:"configs/catalog.yaml"`
	DataDir                   string  `yaml:"data_dir" envconfig:"DIR" default:"data"`
	Source                    string  `yaml:"source" envconfig:"SOURCE" default:"postgres"`
	DefaultCupSize            int     `yaml:"default_cup_size" envconfig:"DEFAULT_CUP_SIZE" default:"14"`
	DefaultRequiredProportion float64 `yaml:"default_required_proportion" envconfig:"DEFAULT_REQUIRED_PROPORTION" default:"0.7"`
}

// IngestConfig controls the ingester
type IngestConfig struct {
	BatchSize   int           `yaml:"batch_size" envconfig:"BATCH_SIZE" default:"1000"`
	Concurrency int           `yaml:"concurrency" envconfig:"CONCURRENCY" default:"4"`
	Interval    time.Duration `yaml:"interval" envconfig:"INTERVAL" default:"0s"`
}

// LoadConfig reads .env (if present), then CLIMATE_* environment variables,
// then the YAML file named by CLIMATE_CONFIG_FILE. Keys set in the file
// override the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings no component can run with
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server port %d out of range", c.Server.Port))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, fmt.Sprintf("database port %d out of range", c.Database.Port))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Data.Source != SourcePostgres && c.Data.Source != SourceFiles {
		problems = append(problems, fmt.Sprintf("data source must be %q or %q, got %q", SourcePostgres, SourceFiles, c.Data.Source))
	}
	if c.Data.CatalogPath == "" {
		problems = append(problems, "catalog path is required")
	}
	if c.Data.DefaultCupSize <= 0 {
		problems = append(problems, fmt.Sprintf("default cup size must be positive, got %d", c.Data.DefaultCupSize))
	}
	if p := c.Data.DefaultRequiredProportion; p < 0 || p > 1 {
		problems = append(problems, fmt.Sprintf("default required proportion must be within [0, 1], got %g", p))
	}
	if c.Ingest.BatchSize <= 0 {
		problems = append(problems, fmt.Sprintf("ingest batch size must be positive, got %d", c.Ingest.BatchSize))
	}
	if c.Ingest.Concurrency < 0 {
		problems = append(problems, fmt.Sprintf("ingest concurrency must not be negative, got %d", c.Ingest.Concurrency))
	}
	if c.Ingest.Interval < 0 {
		problems = append(problems, fmt.Sprintf("ingest interval must not be negative, got %s", c.Ingest.Interval))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// PostgresConfig converts the database section for pkg/database
func (c *Config) PostgresConfig() *database.Config {
	return &database.Config{
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		User:            c.Database.User,
		Password:        c.Database.Password,
		Database:        c.Database.Database,
		SSLMode:         c.Database.SSLMode,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		ConnMaxIdleTime: c.Database.ConnMaxIdleTime,
	}
}
