package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "climate", cfg.Database.Database)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, SourcePostgres, cfg.Data.Source)
	assert.Equal(t, 14, cfg.Data.DefaultCupSize)
	assert.InDelta(t, 0.7, cfg.Data.DefaultRequiredProportion, 1e-9)
	assert.Equal(t, 1000, cfg.Ingest.BatchSize)
	assert.Equal(t, time.Duration(0), cfg.Ingest.Interval)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("CLIMATE_SERVER_PORT", "9090")
	t.Setenv("CLIMATE_DATABASE_NAME", "climate_test")
	t.Setenv("CLIMATE_DATA_SOURCE", "files")
	t.Setenv("CLIMATE_INGEST_INTERVAL", "6h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "climate_test", cfg.Database.Database)
	assert.Equal(t, SourceFiles, cfg.Data.Source)
	assert.Equal(t, 6*time.Hour, cfg.Ingest.Interval)
}

func TestLoadConfig_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "climate.yaml")
	content := `
server:
  port: 7070
data:
  default_cup_size: 7
  default_required_proportion: 0.5
ingest:
  interval: 30m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("CLIMATE_SERVER_PORT", "9090")
	t.Setenv("CLIMATE_DATABASE_HOST", "db.internal")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port, "file overrides environment")
	assert.Equal(t, "db.internal", cfg.Database.Host, "keys absent from the file keep their env value")
	assert.Equal(t, 7, cfg.Data.DefaultCupSize)
	assert.InDelta(t, 0.5, cfg.Data.DefaultRequiredProportion, 1e-9)
	assert.Equal(t, 30*time.Minute, cfg.Ingest.Interval)
}

func TestLoadConfig_FileErrors(t *testing.T) {
	dir := t.TempDir()
	unknownKey := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknownKey, []byte("server:\n  prot: 1\n"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(dir, "absent.yaml")},
		{name: "unknown key", path: unknownKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ConfigFileEnv, tt.path)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	valid := func(t *testing.T) *Config {
		cfg, err := LoadConfig()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "server port", modify: func(c *Config) { c.Server.Port = 70000 }},
		{name: "database port", modify: func(c *Config) { c.Database.Port = 0 }},
		{name: "log level", modify: func(c *Config) { c.Logging.Level = "verbose" }},
		{name: "source", modify: func(c *Config) { c.Data.Source = "s3" }},
		{name: "catalog path", modify: func(c *Config) { c.Data.CatalogPath = "" }},
		{name: "cup size", modify: func(c *Config) { c.Data.DefaultCupSize = 0 }},
		{name: "proportion", modify: func(c *Config) { c.Data.DefaultRequiredProportion = 1.5 }},
		{name: "batch size", modify: func(c *Config) { c.Ingest.BatchSize = -1 }},
		{name: "interval", modify: func(c *Config) { c.Ingest.Interval = -time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPostgresConfig(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host:         "db",
		Port:         5433,
		User:         "climate",
		Database:     "records",
		MaxOpenConns: 10,
	}}

	db := cfg.PostgresConfig()
	assert.Equal(t, "db", db.Host)
	assert.Equal(t, 5433, db.Port)
	assert.Equal(t, "records", db.Database)
	assert.Equal(t, 10, db.MaxOpenConns)
}
