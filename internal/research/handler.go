package research

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openresearch/research-agent/internal/api"
	"github.com/openresearch/research-agent/internal/models"
	"github.com/openresearch/research-agent/internal/monitoring"
)

const defaultListLimit = 10

// Handler holds the research HTTP handlers.
type Handler struct {
	sessions SessionStore
	runner   *Runner
	metrics  *monitoring.Metrics
	log      *slog.Logger
}

func NewHandler(sessions SessionStore, runner *Runner, metrics *monitoring.Metrics, log *slog.Logger) *Handler {
	return &Handler{sessions: sessions, runner: runner, metrics: metrics, log: log}
}

// Routes mounts the research endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/start", h.Start)
	r.Get("/results/{id}", h.Results)
	r.Get("/sessions", h.List)
	r.Delete("/sessions/{id}", h.Delete)
}

// Start validates the request, inserts a started session and hands it
// to the background runner. It returns before any work happens.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, h.log, api.Validationf("invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		api.Error(w, h.log, err)
		return
	}

	sess := models.NewSession(uuid.New().String(), &req)
	if err := h.sessions.Create(r.Context(), sess); err != nil {
		h.metrics.ResearchQueries.WithLabelValues(string(models.StatusFailed), sess.Complexity).Inc()
		api.Error(w, h.log, err)
		return
	}
	// The session is visible in the store before the job is queued.
	h.runner.Dispatch(sess.ID)

	h.metrics.ResearchQueries.WithLabelValues(string(models.StatusStarted), sess.Complexity).Inc()
	h.log.Info("research session started", "session_id", sess.ID, "query", sess.Query)

	api.JSON(w, http.StatusOK, models.StartResponse{
		SessionID:     sess.ID,
		Status:        models.StatusStarted,
		Query:         sess.Query,
		Message:       "Research session started successfully",
		EstimatedTime: EstimateSeconds(sess.Complexity),
	})
}

// Results returns the current snapshot of a session, whatever state it
// is in at the moment of the call.
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		api.Error(w, h.log, err)
		return
	}
	api.JSON(w, http.StatusOK, sess)
}

// List returns a page of session snapshots in insertion order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := api.QueryInt(r, "limit", defaultListLimit)
	if err != nil {
		api.Error(w, h.log, err)
		return
	}
	offset, err := api.QueryInt(r, "offset", 0)
	if err != nil {
		api.Error(w, h.log, err)
		return
	}

	page, err := h.sessions.List(r.Context(), offset, limit)
	if err != nil {
		api.Error(w, h.log, err)
		return
	}
	api.JSON(w, http.StatusOK, page)
}

// Delete removes a session. An in-flight background task is not
// cancelled; its eventual write-back fails quietly.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		api.Error(w, h.log, err)
		return
	}
	h.log.Info("research session deleted", "session_id", id)
	api.Message(w, http.StatusOK, "Research session deleted successfully")
}
