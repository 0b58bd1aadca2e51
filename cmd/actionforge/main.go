package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/ActionForge/internal/adapter/a2acard"
	afhttp "github.com/Strob0t/ActionForge/internal/adapter/http"
	"github.com/Strob0t/ActionForge/internal/adapter/litellm"
	afmcp "github.com/Strob0t/ActionForge/internal/adapter/mcp"
	"github.com/Strob0t/ActionForge/internal/adapter/otel"
	"github.com/Strob0t/ActionForge/internal/adapter/ws"
	"github.com/Strob0t/ActionForge/internal/config"
	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/logger"
	"github.com/Strob0t/ActionForge/internal/middleware"
	"github.com/Strob0t/ActionForge/internal/resilience"
	"github.com/Strob0t/ActionForge/internal/secrets"
	"github.com/Strob0t/ActionForge/internal/service"
)

const (
	idempotencyTTL = 24 * time.Hour
	masterKeyName  = "LITELLM_MASTER_KEY"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"store", cfg.Store.Backend,
		"nats", cfg.NATS.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---

	shutdownOTEL, err := otel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(shutdownCtx); err != nil {
			slog.Warn("otel shutdown failed", "error", err)
		}
	}()
	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	backends, err := openInfra(ctx, cfg)
	if err != nil {
		return err
	}
	defer backends.Close()

	// --- Services ---

	reg := agent.DefaultRegistry()
	specialists := service.NewSpecialists(reg)
	hub := ws.NewHub(cfg.Server.CORSOrigin)
	defer hub.Close()
	outbox := service.NewOutbox(backends.queue, metrics)

	llmClient := litellm.NewChatClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey, cfg.LiteLLM.Model, cfg.LiteLLM.MaxTokens,
		resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
	if cfg.LiteLLM.SecretsFile != "" {
		vault, err := secrets.NewVault(secrets.Chain(
			secrets.EnvLoader(masterKeyName),
			secrets.FileLoader(cfg.LiteLLM.SecretsFile),
		))
		if err != nil {
			return fmt.Errorf("secrets: %w", err)
		}
		llmClient.SetKeySource(vault.Source(masterKeyName))
		go reloadOnHangup(ctx, vault)
	}

	orchestrator := service.NewOrchestratorService(reg, specialists, backends.audit, outbox, metrics, cfg.Materializer)
	swarmSvc := service.NewSwarmService(reg, specialists, backends.swarm, backends.audit, outbox, hub, metrics, cfg.Swarm, cfg.Materializer)
	swarmSvc.SetCache(backends.cache, cfg.Cache.SnapshotTTL)
	discussions := service.NewDiscussionService(reg, llmClient, swarmSvc.Recorder(), backends.audit, metrics, cfg.Discussion)

	if backends.queue != nil {
		cancelConsumer, err := service.NewEventConsumer(swarmSvc, backends.queue).Start(ctx)
		if err != nil {
			return fmt.Errorf("event consumer: %w", err)
		}
		defer cancelConsumer()
	}

	// --- HTTP ---

	handlers := &afhttp.Handlers{
		Orchestrator: orchestrator,
		Swarm:        swarmSvc,
		Agents:       reg,
		Audit:        backends.audit,
		Discussions:  ws.NewDiscussionHandler(discussions, hub),
		Events:       http.HandlerFunc(hub.HandleWS),
		Checks:       backends.checks(cfg),
		Limits:       afhttp.DefaultLimits(),
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(afhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(afhttp.SecurityHeaders)
	r.Use(afhttp.CORS(cfg.Server.CORSOrigin))

	afhttp.MountRoutes(r, handlers, middleware.Idempotency(backends.cache, idempotencyTTL))

	card := a2acard.BuildAgentCard(cfg.Server.BaseURL, afhttp.Version, reg)
	a2acard.NewHandler(card, swarmSvc).MountRoutes(r)

	if cfg.MCP.Enabled {
		mcpSrv := afmcp.NewServer(afmcp.ServerConfig{Name: "actionforge", Version: afhttp.Version}, afmcp.ServerDeps{
			Ranker:    orchestrator,
			Snapshots: swarmSvc,
			Agents:    reg,
		})
		r.Handle("/mcp", mcpSrv.Handler())
	}

	addr := ":" + cfg.Server.Port

	// No WriteTimeout: discussion and hub websockets are long-lived.
	srv := &http.Server{
		Addr:              addr,
		Handler:           otel.HTTPMiddleware(cfg.OTEL.ServiceName)(r),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// reloadOnHangup re-reads the secrets file on every SIGHUP until ctx ends.
func reloadOnHangup(ctx context.Context, vault *secrets.Vault) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := vault.Reload(); err != nil {
				slog.Error("secrets reload failed", "error", err)
				continue
			}
			slog.Info("secrets reloaded")
		}
	}
}
