package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values, populated from
// environment variables (see the envconfig tags for names and defaults).
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	HttpServer ServerConfig
	Snapshot   SnapshotConfig
	Catalog    CatalogConfig
}

// ServerConfig holds HTTP server-specific configuration.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// SnapshotConfig selects and configures the snapshot persistence backend.
// "file" writes CSV files under Dir, "sqlite" is the local embedded database,
// "postgres" is the hosted one.
type SnapshotConfig struct {
	Backend    string `envconfig:"SNAPSHOT_BACKEND" default:"file"`
	Dir        string `envconfig:"SNAPSHOT_DIR" default:"data/snapshots"`
	SQLitePath string `envconfig:"SNAPSHOT_SQLITE_PATH" default:"data/snapshots.db"`
	Postgres   PostgresConfig
}

// PostgresConfig holds PostgreSQL connection details. Only required when
// SNAPSHOT_BACKEND=postgres.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"catalog"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:""`
	DBName   string `envconfig:"POSTGRES_DBNAME" default:"catalog"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode)
}

// CatalogConfig locates the supplier catalog files and the source manifest.
type CatalogConfig struct {
	ManifestPath string `envconfig:"CATALOG_MANIFEST" default:""`
	DataDir      string `envconfig:"CATALOG_DATA_DIR" default:"data/catalogs"`
}

// Load initializes the configuration from environment variables. It should be
// called once during application startup.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	switch cfg.Snapshot.Backend {
	case "file", "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("invalid SNAPSHOT_BACKEND %q (want file, sqlite or postgres)", cfg.Snapshot.Backend)
	}
	return &cfg, nil
}
