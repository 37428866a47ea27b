// Package users exposes the user registry over HTTP.
package users

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openresearch/research-agent/internal/api"
	"github.com/openresearch/research-agent/internal/models"
)

const defaultListLimit = 50

// Registry is the store surface the handlers need.
type Registry interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, u *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, isActive *bool, offset, limit int) ([]*models.User, error)
	Stats(ctx context.Context) (*models.UserStats, error)
}

type Handler struct {
	registry Registry
	log      *slog.Logger
}

func NewHandler(registry Registry, log *slog.Logger) *Handler {
	return &Handler{registry: registry, log: log}
}

// Routes mounts the user endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/stats/summary", h.Stats)
	r.Post("/", h.Create)
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
	isActive, err := api.QueryBool(r, "is_active")
	if err != nil {
		api.Error(w, h.log, err)
		return
	}

	page, err := h.registry.List(r.Context(), isActive, offset, limit)
	if err != nil {
		api.Error(w, h.log, err)
		return
	}
	api.JSON(w, http.StatusOK, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, h.log, err)
		return
	}
	api.JSON(w, http.StatusOK, u)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.registry.Stats(r.Context())
	if err != nil {
		api.Error(w, h.log, err)
		return
	}
	api.JSON(w, http.StatusOK, stats)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.UserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Error(w, h.log, api.Validationf("invalid request body"))
		return
	}
	u, err := payload.Validate()
	if err != nil {
		api.Error(w, h.log, err)
		return
	}
	if err := h.registry.Create(r.Context(), u); err != nil {
		api.Error(w, h.log, err)
		return
	}
	h.log.Info("user created", "user_id", u.UserID, "username", u.Username)
	api.JSON(w, http.StatusCreated, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload models.UserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Error(w, h.log, api.Validationf("invalid request body"))
		return
	}
	payload.UserID = id
	u, err := payload.Validate()
	if err != nil {
		api.Error(w, h.log, err)
		return
	}
	if err := h.registry.Update(r.Context(), id, u); err != nil {
		api.Error(w, h.log, err)
		return
	}
	h.log.Info("user updated", "user_id", id)
	api.JSON(w, http.StatusOK, u)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.Delete(r.Context(), id); err != nil {
		api.Error(w, h.log, err)
		return
	}
	h.log.Info("user deleted", "user_id", id)
	api.Message(w, http.StatusOK, "User deleted successfully")
}
