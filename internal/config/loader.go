package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "factory.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "FACTORY_PORT")
	setString(&cfg.Server.CORSOrigin, "FACTORY_CORS_ORIGIN")
	setString(&cfg.Persistence.Driver, "FACTORY_PERSISTENCE_DRIVER")
	setInt64(&cfg.Persistence.CacheSizeMB, "FACTORY_CACHE_SIZE_MB")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "FACTORY_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "FACTORY_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "FACTORY_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "FACTORY_PG_MAX_CONN_IDLE_TIME")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Signer.MasterSeed, "FACTORY_MASTER_SEED")
	setDuration(&cfg.Factory.TickInterval, "FACTORY_TICK_INTERVAL")
	setFloat64(&cfg.Factory.FailureRate, "FACTORY_FAILURE_RATE")
	setDuration(&cfg.Factory.Retention, "FACTORY_RETENTION")
	setBool(&cfg.Factory.AutoStart, "FACTORY_AUTO_START")
	setString(&cfg.Logging.Level, "FACTORY_LOG_LEVEL")
	setString(&cfg.Logging.Service, "FACTORY_LOG_SERVICE")
	setBool(&cfg.OTel.Enabled, "FACTORY_OTEL_ENABLED")
	setString(&cfg.OTel.Endpoint, "FACTORY_OTEL_ENDPOINT")
	setString(&cfg.OTel.ServiceName, "FACTORY_OTEL_SERVICE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Persistence.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("persistence.driver must be memory or postgres, got %q", cfg.Persistence.Driver)
	}
	if cfg.Persistence.Driver == "postgres" && cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Factory.TickInterval <= 0 {
		return errors.New("factory.tick_interval must be positive")
	}
	if cfg.Factory.FailureRate < 0 || cfg.Factory.FailureRate >= 1 {
		return errors.New("factory.failure_rate must be in [0, 1)")
	}
	if cfg.Factory.Retention <= 0 {
		return errors.New("factory.retention must be positive")
	}
	if cfg.Signer.MasterSeed == "" {
		return errors.New("signer.master_seed is required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
