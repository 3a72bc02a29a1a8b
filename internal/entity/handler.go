package entity

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/groundwork-re/groundwork/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers entity read endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

type entityResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Purpose     string  `json:"purpose"`
	ProjectType *string `json:"project_type,omitempty"`
	IsActive    bool    `json:"is_active"`
}

func toResponse(e Entity) entityResponse {
	return entityResponse{
		ID:          e.ID,
		Name:        e.Name,
		Purpose:     string(e.Purpose),
		ProjectType: e.ProjectType,
		IsActive:    e.IsActive,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 25
	}
	filters := ListFilters{
		Search:     r.URL.Query().Get("search"),
		Purpose:    Purpose(r.URL.Query().Get("purpose")),
		ActiveOnly: r.URL.Query().Get("active") == "true",
		Page:       page,
		Limit:      limit,
	}
	entities, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list entities", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]entityResponse, 0, len(entities))
	for _, e := range entities {
		items = append(items, toResponse(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "entity id must be a positive integer")
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(e))
}
