package dedup

import (
	"context"
	"fmt"
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

// MountRoutes registers duplicate-detection endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/duplicates/scan", h.scan)
	r.Post("/entities/{entityID}/duplicates/scan-related", h.scanRelated)

	r.Get("/duplicates/alerts", h.listAlerts)
	r.Post("/duplicates/alerts", h.createAlert)
	r.Post("/duplicates/alerts/{id}/confirm", h.confirm)
	r.Post("/duplicates/alerts/{id}/dismiss", h.dismiss)
	r.Post("/duplicates/alerts/{id}/merge", h.merge)
	r.Get("/duplicates/stats", h.stats)
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	candidates, err := h.service.DetectDuplicates(r.Context(), req.EntityAID, req.EntityBID, DetectOptions{Threshold: req.Threshold})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

func (h *Handler) scanRelated(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.parseID(w, chi.URLParam(r, "entityID"))
	if !ok {
		return
	}
	candidates, err := h.service.ScanRelatedEntities(r.Context(), entityID, DetectOptions{})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{Status: AlertStatus(r.URL.Query().Get("status"))}
	if raw := r.URL.Query().Get("entity_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid ID", fmt.Sprintf("%q is not a valid entity id", raw))
			return
		}
		filters.EntityID = id
	}
	alerts, err := h.service.ListAlerts(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": alerts})
}

func (h *Handler) createAlert(w http.ResponseWriter, r *http.Request) {
	var req CreateAlertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	alert, err := h.service.CreateAlert(r.Context(), req.toCandidate())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, alert)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Confirm)
}

func (h *Handler) dismiss(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Dismiss)
}

func (h *Handler) merge(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.MarkMerged)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64, reviewer, notes string) (DuplicateAlert, error)) {
	id, ok := h.parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req ReviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	alert, err := fn(r.Context(), id, req.Reviewer, req.Notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, alert)
}

func (h *Handler) parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", fmt.Sprintf("%q is not a valid id", raw))
		return 0, false
	}
	return id, true
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	var entityID int64
	if raw := r.URL.Query().Get("entity_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid ID", fmt.Sprintf("%q is not a valid entity id", raw))
			return
		}
		entityID = id
	}
	stats, err := h.service.GetStats(r.Context(), entityID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
