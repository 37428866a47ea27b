// Package sources exposes the source registry over HTTP.
package sources

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openresearch/research-agent/internal/api"
	"github.com/openresearch/research-agent/internal/models"
	"github.com/openresearch/research-agent/internal/monitoring"
)

const defaultListLimit = 50

// Registry is the store surface the handlers need.
type Registry interface {
	Create(ctx context.Context, src *models.Source) error
	Get(ctx context.Context, id string) (*models.Source, error)
	Update(ctx context.Context, id string, src *models.Source) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, sourceType, status string, offset, limit int) ([]*models.Source, error)
	Stats(ctx context.Context) (*models.SourceStats, error)
}

type Handler struct {
	registry Registry
	metrics  *monitoring.Metrics
	log      *slog.Logger
}

func NewHandler(registry Registry, metrics *monitoring.Metrics, log *slog.Logger) *Handler {
	return &Handler{registry: registry, metrics: metrics, log: log}
}

// Routes mounts the source endpoints. The static stats route is
// registered alongside the wildcard; chi matches it first.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/stats/summary", h.Stats)
	r.Post("/register", h.Register)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

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

	page, err := h.registry.List(r.Context(), r.URL.Query().Get("source_type"), r.URL.Query().Get("status"), offset, limit)
	if err != nil {
		api.Error(w, h.log, err)
		return
	}
	api.JSON(w, http.StatusOK, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	src, err := h.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, h.log, err)
		return
	}
	api.JSON(w, http.StatusOK, src)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.registry.Stats(r.Context())
	if err != nil {
		api.Error(w, h.log, err)
		return
	}
	api.JSON(w, http.StatusOK, stats)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var src models.Source
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		api.Error(w, h.log, api.Validationf("invalid request body"))
		return
	}
	if err := src.Validate(); err != nil {
		api.Error(w, h.log, err)
		return
	}
	if err := h.registry.Create(r.Context(), &src); err != nil {
		api.Error(w, h.log, err)
		return
	}

	h.metrics.SourceRequests.WithLabelValues(src.Type, "registered").Inc()
	h.log.Info("source registered", "source_id", src.SourceID, "type", src.Type)
	api.JSON(w, http.StatusCreated, src)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var src models.Source
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		api.Error(w, h.log, api.Validationf("invalid request body"))
		return
	}
	src.SourceID = id
	if err := src.Validate(); err != nil {
		api.Error(w, h.log, err)
		return
	}
	if err := h.registry.Update(r.Context(), id, &src); err != nil {
		api.Error(w, h.log, err)
		return
	}
	h.log.Info("source updated", "source_id", id)
	api.JSON(w, http.StatusOK, src)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.Delete(r.Context(), id); err != nil {
		api.Error(w, h.log, err)
		return
	}
	h.log.Info("source deleted", "source_id", id)
	api.Message(w, http.StatusOK, "Source deleted successfully")
}
