package a2acard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/ActionForge/internal/domain"
	"github.com/Strob0t/ActionForge/internal/domain/orchestration"
	"github.com/Strob0t/ActionForge/internal/domain/swarm"
	"github.com/Strob0t/ActionForge/internal/service"
)

const maxTaskBody = 1 << 20

// Runs is the swarm surface behind the task endpoints.
type Runs interface {
	Execute(ctx context.Context, octx *orchestration.Context) (*service.SwarmResult, error)
	GetRun(ctx context.Context, id string) (*swarm.Run, error)
}

// Handler serves the agent card and the task endpoints.
type Handler struct {
	card *a2a.AgentCard
	runs Runs
}

// NewHandler creates an A2A handler.
func NewHandler(card *a2a.AgentCard, runs Runs) *Handler {
	return &Handler{card: card, runs: runs}
}

// MountRoutes registers A2A routes on the given chi router.
// These are mounted at the root level, not under /api/v1.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/.well-known/agent.json", h.handleAgentCard)
	r.Post("/a2a/tasks", h.handleCreateTask)
	r.Get("/a2a/tasks/{id}", h.handleGetTask)
}

func (h *Handler) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.card)
}

// handleCreateTask runs the posted orchestration context as a swarm run.
// The task id is the run id.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var octx orchestration.Context
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTaskBody)).Decode(&octx); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.runs.Execute(r.Context(), &octx)
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrRecursionLimit):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "a2a task failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	slog.InfoContext(r.Context(), "a2a task created", "run_id", res.RunID, "status", res.Status)
	writeJSON(w, http.StatusCreated, taskOf(res.RunID, octx.Event.ID, res.Status))
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "a2a task lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, taskOf(run.ID, run.EventID, run.Status))
}

func taskOf(runID, eventID string, status swarm.RunStatus) *a2a.Task {
	return &a2a.Task{
		ID:        a2a.TaskID(runID),
		ContextID: eventID,
		Status:    a2a.TaskStatus{State: taskState(status)},
	}
}

func taskState(s swarm.RunStatus) a2a.TaskState {
	switch s {
	case swarm.RunCompleted:
		return a2a.TaskStateCompleted
	case swarm.RunFailed:
		return a2a.TaskStateFailed
	default:
		return a2a.TaskStateWorking
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
