package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Store.Backend != StoreMemory {
		t.Errorf("expected memory store, got %s", cfg.Store.Backend)
	}
	if cfg.Swarm.MaxCausationDepth != 3 {
		t.Errorf("expected causation depth 3, got %d", cfg.Swarm.MaxCausationDepth)
	}
	if cfg.Swarm.MaxHandoffsPerRun != 16 {
		t.Errorf("expected 16 handoffs per run, got %d", cfg.Swarm.MaxHandoffsPerRun)
	}
	if cfg.Discussion.TurnTimeout != 20*time.Second {
		t.Errorf("expected turn timeout 20s, got %v", cfg.Discussion.TurnTimeout)
	}
	if cfg.Discussion.MaxExtraMentions != 2 || cfg.Discussion.MaxDefenders != 2 {
		t.Errorf("expected mention caps 2/2, got %d/%d", cfg.Discussion.MaxExtraMentions, cfg.Discussion.MaxDefenders)
	}
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
store:
  backend: postgres
swarm:
  max_causation_depth: 5
discussion:
  turn_timeout: 5s
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Store.Backend != StorePostgres {
		t.Errorf("expected postgres store, got %s", cfg.Store.Backend)
	}
	if cfg.Swarm.MaxCausationDepth != 5 {
		t.Errorf("expected depth 5, got %d", cfg.Swarm.MaxCausationDepth)
	}
	if cfg.Discussion.TurnTimeout != 5*time.Second {
		t.Errorf("expected turn timeout 5s, got %v", cfg.Discussion.TurnTimeout)
	}
	// Unchanged fields keep defaults
	if cfg.Swarm.MaxHandoffsPerRun != 16 {
		t.Errorf("expected default handoff cap, got %d", cfg.Swarm.MaxHandoffsPerRun)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, "/nonexistent/path.yaml"); err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Defaults()
	if err := loadYAML(&cfg, path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("ACTIONFORGE_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("ACTIONFORGE_PG_MAX_CONNS", "25")
	t.Setenv("ACTIONFORGE_LOG_LEVEL", "warn")
	t.Setenv("ACTIONFORGE_BREAKER_TIMEOUT", "1m")
	t.Setenv("ACTIONFORGE_SWARM_MAX_HANDOFFS", "4")
	t.Setenv("ACTIONFORGE_DISCUSSION_TURN_TIMEOUT", "3s")
	t.Setenv("ACTIONFORGE_MATERIALIZER_MIN_TOTAL", "1.5")
	t.Setenv("ACTIONFORGE_NATS_ENABLED", "true")
	t.Setenv("ACTIONFORGE_CACHE_L1_SIZE_MB", "128")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.DSN != "postgres://test:test@db:5432/test" {
		t.Errorf("unexpected DSN: %s", cfg.Postgres.DSN)
	}
	if cfg.Postgres.MaxConns != 25 {
		t.Errorf("expected max_conns 25, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Breaker.Timeout != time.Minute {
		t.Errorf("expected breaker timeout 1m, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Swarm.MaxHandoffsPerRun != 4 {
		t.Errorf("expected 4 handoffs, got %d", cfg.Swarm.MaxHandoffsPerRun)
	}
	if cfg.Discussion.TurnTimeout != 3*time.Second {
		t.Errorf("expected 3s turn timeout, got %v", cfg.Discussion.TurnTimeout)
	}
	if cfg.Materializer.MinTotal != 1.5 {
		t.Errorf("expected min total 1.5, got %v", cfg.Materializer.MinTotal)
	}
	if !cfg.NATS.Enabled {
		t.Error("expected nats enabled")
	}
	if cfg.Cache.L1MaxSizeMB != 128 {
		t.Errorf("expected L1 128MB, got %d", cfg.Cache.L1MaxSizeMB)
	}
}

func TestEnvInvalidValuesIgnored(t *testing.T) {
	cfg := Defaults()
	t.Setenv("ACTIONFORGE_PG_MAX_CONNS", "not-a-number")
	t.Setenv("ACTIONFORGE_BREAKER_TIMEOUT", "soon")
	t.Setenv("ACTIONFORGE_NATS_ENABLED", "maybe")

	loadEnv(&cfg)

	if cfg.Postgres.MaxConns != 10 {
		t.Errorf("invalid int must keep default, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("invalid duration must keep default, got %v", cfg.Breaker.Timeout)
	}
	if cfg.NATS.Enabled {
		t.Error("invalid bool must keep default")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"no port", func(c *Config) { c.Server.Port = "" }, "server.port"},
		{"unknown store", func(c *Config) { c.Store.Backend = "sqlite" }, "store.backend"},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = StorePostgres; c.Postgres.DSN = "" }, "postgres.dsn"},
		{"postgres zero conns", func(c *Config) { c.Store.Backend = StorePostgres; c.Postgres.MaxConns = 0 }, "postgres.max_conns"},
		{"memory ignores dsn", func(c *Config) { c.Postgres.DSN = "" }, ""},
		{"nats enabled without url", func(c *Config) { c.NATS.Enabled = true; c.NATS.URL = "" }, "nats.url"},
		{"breaker", func(c *Config) { c.Breaker.MaxFailures = 0 }, "breaker.max_failures"},
		{"negative depth", func(c *Config) { c.Swarm.MaxCausationDepth = -1 }, "max_causation_depth"},
		{"zero turn timeout", func(c *Config) { c.Discussion.TurnTimeout = 0 }, "turn_timeout"},
		{"negative defenders", func(c *Config) { c.Discussion.MaxDefenders = -1 }, "mention caps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := validate(&cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFromFullHierarchy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actionforge.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9000\"\nswarm:\n  max_handoffs_per_run: 8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ACTIONFORGE_PORT", "9100")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "9100" {
		t.Errorf("env must win over yaml, got %s", cfg.Server.Port)
	}
	if cfg.Swarm.MaxHandoffsPerRun != 8 {
		t.Errorf("yaml must win over defaults, got %d", cfg.Swarm.MaxHandoffsPerRun)
	}
}

func TestLoadFromRejectsInvalid(t *testing.T) {
	t.Setenv("ACTIONFORGE_STORE", "redis")
	if _, err := LoadFrom("/nonexistent.yaml"); err == nil {
		t.Fatal("expected validation error")
	}
}
