package http

import (
	"context"
	"net/http"

	"github.com/agentdeck/agentdeck/internal/domain/orchestration"
)

// Healther reports readiness of an infrastructure dependency.
type Healther interface {
	Ping(ctx context.Context) error
}

// Handlers bundles the HTTP handler dependencies.
type Handlers struct {
	Engine Orchestrator
	DB     Healther
	WSInfo func() int
}

// Orchestrator is the subset of the orchestration engine the HTTP layer uses.
type Orchestrator interface {
	Create(ctx context.Context, req orchestration.CreateRequest) (*orchestration.Orchestration, error)
	Resume(ctx context.Context, id, message string) error
	Cancel(ctx context.Context, id string) bool
	Get(ctx context.Context, id string) (*orchestration.Orchestration, error)
	List(ctx context.Context, project string) []orchestration.Orchestration
	Messages(ctx context.Context, id string) ([]orchestration.Message, error)
	Subtasks(ctx context.Context, id string) ([]orchestration.Subtask, error)
}

// CreateOrchestration handles POST /api/v1/orchestrations
func (h *Handlers) CreateOrchestration(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[orchestration.CreateRequest](w, r)
	if !ok {
		return
	}

	o, err := h.Engine.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "create orchestration failed")
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// ResumeOrchestration handles POST /api/v1/orchestrations/{id}/resume
func (h *Handlers) ResumeOrchestration(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[orchestration.ResumeRequest](w, r)
	if !ok {
		return
	}

	if err := h.Engine.Resume(r.Context(), id, req.Message); err != nil {
		writeDomainError(w, err, "orchestration not found")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "resuming"})
}

// CancelOrchestration handles POST /api/v1/orchestrations/{id}/cancel
func (h *Handlers) CancelOrchestration(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	cancelled := h.Engine.Cancel(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// GetOrchestration handles GET /api/v1/orchestrations/{id}
func (h *Handlers) GetOrchestration(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	o, err := h.Engine.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "orchestration not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// ListOrchestrations handles GET /api/v1/orchestrations
func (h *Handlers) ListOrchestrations(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("project")
	list := h.Engine.List(r.Context(), project)
	writeJSON(w, http.StatusOK, orEmpty(list))
}

// ListOrchestrationMessages handles GET /api/v1/orchestrations/{id}/messages
func (h *Handlers) ListOrchestrationMessages(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	msgs, err := h.Engine.Messages(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "orchestration not found")
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(msgs))
}

// ListOrchestrationSubtasks handles GET /api/v1/orchestrations/{id}/subtasks
func (h *Handlers) ListOrchestrationSubtasks(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	subs, err := h.Engine.Subtasks(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "orchestration not found")
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(subs))
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	dbStatus := "ok"

	if h.DB != nil {
		if err := h.DB.Ping(r.Context()); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}

	resp := map[string]any{
		"status":   status,
		"database": dbStatus,
	}
	if h.WSInfo != nil {
		resp["ws_connections"] = h.WSInfo()
	}
	writeJSON(w, code, resp)
}
