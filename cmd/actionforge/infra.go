package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	afhttp "github.com/Strob0t/ActionForge/internal/adapter/http"
	"github.com/Strob0t/ActionForge/internal/adapter/litellm"
	"github.com/Strob0t/ActionForge/internal/adapter/memory"
	"github.com/Strob0t/ActionForge/internal/adapter/nats"
	"github.com/Strob0t/ActionForge/internal/adapter/natskv"
	"github.com/Strob0t/ActionForge/internal/adapter/postgres"
	"github.com/Strob0t/ActionForge/internal/adapter/ristretto"
	"github.com/Strob0t/ActionForge/internal/adapter/tiered"
	"github.com/Strob0t/ActionForge/internal/config"
	"github.com/Strob0t/ActionForge/internal/port/auditlog"
	"github.com/Strob0t/ActionForge/internal/port/cache"
	"github.com/Strob0t/ActionForge/internal/port/messagequeue"
	"github.com/Strob0t/ActionForge/internal/port/swarmstore"
)

// infra holds the backends selected by configuration.
type infra struct {
	pool  *pgxpool.Pool // nil with the memory store
	nats  *nats.Queue   // nil when NATS is disabled
	queue messagequeue.Queue
	l1    *ristretto.Cache
	cache cache.Cache
	swarm swarmstore.Store
	audit auditlog.Log
}

func openInfra(ctx context.Context, cfg *config.Config) (*infra, error) {
	in := &infra{}
	ok := false
	defer func() {
		if !ok {
			in.Close()
		}
	}()

	if err := in.openStores(ctx, cfg); err != nil {
		return nil, err
	}

	var l2 cache.Cache
	if cfg.NATS.Enabled {
		q, err := nats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("nats: %w", err)
		}
		in.nats, in.queue = q, q

		kv, err := q.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return nil, fmt.Errorf("cache l2: %w", err)
		}
		l2 = natskv.New(kv)
	}

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return nil, fmt.Errorf("cache l1: %w", err)
	}
	in.l1 = l1
	in.cache = tiered.New(l1, l2, cfg.Cache.SnapshotTTL)

	ok = true
	return in, nil
}

func (in *infra) openStores(ctx context.Context, cfg *config.Config) error {
	if cfg.Store.Backend != config.StorePostgres {
		in.swarm = memory.NewSwarmStore()
		in.audit = memory.NewAuditLog()
		slog.Info("using in-memory store")
		return nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	in.pool = pool

	st, err := postgres.RunMigrations(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied", "from", st.From, "to", st.To)

	in.swarm = postgres.NewSwarmStore(pool)
	in.audit = postgres.NewAuditStore(pool)
	return nil
}

// checks returns the readiness probes for every configured backend.
func (in *infra) checks(cfg *config.Config) map[string]afhttp.CheckFunc {
	checks := map[string]afhttp.CheckFunc{}
	if in.pool != nil {
		checks["postgres"] = in.pool.Ping
	}
	if in.nats != nil {
		checks["nats"] = func(context.Context) error {
			if !in.nats.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}
	}
	if cfg.LiteLLM.URL != "" {
		checks["litellm"] = litellm.NewAdminClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey).Health
	}
	return checks
}

// Close drains the queue and releases every backend.
func (in *infra) Close() {
	if in.nats != nil {
		if err := in.nats.Drain(); err != nil {
			slog.Warn("nats drain failed", "error", err)
		}
	}
	if in.l1 != nil {
		in.l1.Close()
	}
	if in.pool != nil {
		in.pool.Close()
	}
}
