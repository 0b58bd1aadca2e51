package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/audit"
	"github.com/Strob0t/ActionForge/internal/domain/event"
	"github.com/Strob0t/ActionForge/internal/port/auditlog"
	"github.com/Strob0t/ActionForge/internal/service"
)

// Version is reported by the API root and the health endpoint.
const Version = "0.1.0"

const (
	defaultAuditLimit = 100
	readinessTimeout  = 2 * time.Second
)

// Limits holds request size limits.
type Limits struct {
	MaxRequestBodySize int64
}

// DefaultLimits returns the request limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxRequestBodySize: 1 << 20}
}

// CheckFunc probes one dependency for the readiness endpoint.
type CheckFunc func(ctx context.Context) error

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Orchestrator *service.OrchestratorService
	Swarm        *service.SwarmService
	Agents       *agent.Registry
	Audit        auditlog.Log

	// Discussions serves the discussion websocket, Events the run hub.
	Discussions http.Handler
	Events      http.Handler

	// Checks are run by GET /health/ready, keyed by dependency name.
	Checks map[string]CheckFunc
	Limits Limits
}

// Orchestrate handles POST /api/v1/orchestrate
func (h *Handlers) Orchestrate(w http.ResponseWriter, r *http.Request) {
	handleRun(h.Limits.MaxRequestBodySize, http.StatusOK, h.Orchestrator.Orchestrate)(w, r)
}

// StartSwarmRun handles POST /api/v1/swarm/runs
func (h *Handlers) StartSwarmRun(w http.ResponseWriter, r *http.Request) {
	handleRun(h.Limits.MaxRequestBodySize, http.StatusCreated, h.Swarm.Execute)(w, r)
}

// ListAgents handles GET /api/v1/agents
// With ?event_type= only the specialists handling that event type are listed.
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("event_type")
	if raw == "" {
		writeJSON(w, http.StatusOK, h.Agents.Profiles())
		return
	}
	t := event.Type(raw)
	if !t.Valid() {
		writeError(w, http.StatusBadRequest, "unknown event_type "+raw)
		return
	}
	profiles := h.Agents.Supporting(t)
	if profiles == nil {
		profiles = []agent.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

// ListAudit handles GET /api/v1/audit?limit=N
func (h *Handlers) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", defaultAuditLimit)
	if !ok {
		return
	}
	handleList(func(ctx context.Context) ([]audit.Record, error) {
		return h.Audit.List(ctx, limit)
	})(w, r)
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: Version})
}

// Ready handles GET /health/ready. Every check runs concurrently; any
// failure answers 503.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]string, len(h.Checks))
		healthy = true
	)
	for name, check := range h.Checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := "ok"
			if err := check(ctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			results[name] = status
			if status != "ok" {
				healthy = false
			}
		}()
	}
	wg.Wait()

	resp := healthResponse{Status: "ok", Version: Version, Checks: results}
	code := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
