package main

import (
	"context"
	"testing"

	"github.com/Strob0t/ActionForge/internal/adapter/memory"
	"github.com/Strob0t/ActionForge/internal/config"
)

func TestOpenInfraMemory(t *testing.T) {
	cfg := config.Defaults()
	cfg.NATS.Enabled = false
	cfg.LiteLLM.URL = ""

	in, err := openInfra(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("openInfra: %v", err)
	}
	defer in.Close()

	if _, ok := in.swarm.(*memory.SwarmStore); !ok {
		t.Errorf("swarm store = %T, want *memory.SwarmStore", in.swarm)
	}
	if in.queue != nil {
		t.Error("queue should be nil without NATS")
	}
	if in.cache == nil {
		t.Fatal("cache should always be configured")
	}
	if checks := in.checks(&cfg); len(checks) != 0 {
		t.Errorf("expected no readiness checks, got %d", len(checks))
	}

	cfg.LiteLLM.URL = "http://localhost:4000"
	if _, ok := in.checks(&cfg)["litellm"]; !ok {
		t.Error("expected litellm readiness check")
	}
}

func TestRunAdmin(t *testing.T) {
	if err := runAdmin(nil); err != nil {
		t.Errorf("help: %v", err)
	}
	if err := runAdmin([]string{"list-agents"}); err != nil {
		t.Errorf("list-agents: %v", err)
	}
	if err := runAdmin([]string{"bogus"}); err == nil {
		t.Error("expected error for unknown command")
	}
	if err := runAdmin([]string{"list-audit", "--limit", "-1"}); err == nil {
		t.Error("expected error for negative limit")
	}
}
