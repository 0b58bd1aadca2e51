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
const DefaultConfigFile = "actionforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML path is ACTIONFORGE_CONFIG or DefaultConfigFile; a missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	setString(&path, "ACTIONFORGE_CONFIG")
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
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
	setString(&cfg.Server.Port, "ACTIONFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "ACTIONFORGE_CORS_ORIGIN")
	setString(&cfg.Server.BaseURL, "ACTIONFORGE_BASE_URL")
	setString(&cfg.Store.Backend, "ACTIONFORGE_STORE")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "ACTIONFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "ACTIONFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "ACTIONFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "ACTIONFORGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "ACTIONFORGE_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")
	setBool(&cfg.NATS.Enabled, "ACTIONFORGE_NATS_ENABLED")

	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")
	setString(&cfg.LiteLLM.Model, "ACTIONFORGE_LLM_MODEL")
	setInt(&cfg.LiteLLM.MaxTokens, "ACTIONFORGE_LLM_MAX_TOKENS")
	setString(&cfg.LiteLLM.SecretsFile, "ACTIONFORGE_SECRETS_FILE")

	setString(&cfg.Logging.Level, "ACTIONFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "ACTIONFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "ACTIONFORGE_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "ACTIONFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "ACTIONFORGE_BREAKER_TIMEOUT")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "ACTIONFORGE_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "ACTIONFORGE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "ACTIONFORGE_CACHE_L2_TTL")
	setDuration(&cfg.Cache.SnapshotTTL, "ACTIONFORGE_CACHE_SNAPSHOT_TTL")

	// OpenTelemetry
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "ACTIONFORGE_OTEL_INSECURE")
	setString(&cfg.OTEL.ServiceName, "ACTIONFORGE_OTEL_SERVICE_NAME")

	// Swarm
	setInt(&cfg.Swarm.MaxHandoffsPerRun, "ACTIONFORGE_SWARM_MAX_HANDOFFS")
	setInt(&cfg.Swarm.MaxCausationDepth, "ACTIONFORGE_SWARM_MAX_CAUSATION_DEPTH")
	setBool(&cfg.Swarm.ParallelGeneration, "ACTIONFORGE_SWARM_PARALLEL")

	// Discussion
	setDuration(&cfg.Discussion.TurnTimeout, "ACTIONFORGE_DISCUSSION_TURN_TIMEOUT")
	setInt(&cfg.Discussion.MaxExtraMentions, "ACTIONFORGE_DISCUSSION_MAX_EXTRA_MENTIONS")
	setInt(&cfg.Discussion.MaxDefenders, "ACTIONFORGE_DISCUSSION_MAX_DEFENDERS")

	setFloat64(&cfg.Materializer.MinTotal, "ACTIONFORGE_MATERIALIZER_MIN_TOTAL")
	setBool(&cfg.MCP.Enabled, "ACTIONFORGE_MCP_ENABLED")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres store")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	default:
		return fmt.Errorf("store.backend %q must be %q or %q", cfg.Store.Backend, StoreMemory, StorePostgres)
	}
	if cfg.NATS.Enabled && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when nats is enabled")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Swarm.MaxHandoffsPerRun < 0 {
		return errors.New("swarm.max_handoffs_per_run must be >= 0")
	}
	if cfg.Swarm.MaxCausationDepth < 0 {
		return errors.New("swarm.max_causation_depth must be >= 0")
	}
	if cfg.Discussion.TurnTimeout <= 0 {
		return errors.New("discussion.turn_timeout must be > 0")
	}
	if cfg.Discussion.MaxExtraMentions < 0 || cfg.Discussion.MaxDefenders < 0 {
		return errors.New("discussion mention caps must be >= 0")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
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
