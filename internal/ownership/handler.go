package ownership

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/groundwork-re/groundwork/internal/platform/httpx"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	resolver *Resolver
}

func NewHandler(logger *slog.Logger, service *Service, resolver *Resolver) *Handler {
	return &Handler{logger: logger, service: service, resolver: resolver}
}

// MountRoutes registers ownership graph endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/relationships", h.create)
	r.Put("/relationships/{id}", h.update)
	r.Post("/relationships/{id}/end", h.end)
	r.Delete("/relationships/{id}", h.delete)

	r.Get("/entities/{entityID}/owners", h.owners)
	r.Get("/entities/{entityID}/holdings", h.holdings)
	r.Get("/entities/{entityID}/available", h.available)
	r.Get("/entities/{entityID}/subsidiary-tree", h.subsidiaryTree)
	r.Get("/entities/{entityID}/ownership-chain", h.ownershipChain)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRelationshipRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rel, err := h.service.CreateRelationship(r.Context(), req.toModel())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("ownership relationship created",
		slog.Int64("parent_id", rel.ParentID),
		slog.Int64("child_id", rel.ChildID),
		slog.Float64("percentage", rel.Percentage))
	httpx.JSON(w, http.StatusCreated, rel)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req UpdateRelationshipRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateRelationship(r.Context(), id, req.toModel()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) end(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req EndRelationshipRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	date := time.Time{}
	if req.EndDate != nil {
		date = *req.EndDate
	}
	if err := h.service.EndRelationship(r.Context(), id, date); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := h.service.DeleteRelationship(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) owners(w http.ResponseWriter, r *http.Request) {
	entityID, ok := parseID(w, chi.URLParam(r, "entityID"))
	if !ok {
		return
	}
	rels, err := h.service.GetOwners(r.Context(), entityID, r.URL.Query().Get("include_ended") == "true")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rels})
}

func (h *Handler) holdings(w http.ResponseWriter, r *http.Request) {
	entityID, ok := parseID(w, chi.URLParam(r, "entityID"))
	if !ok {
		return
	}
	rels, err := h.service.GetHoldings(r.Context(), entityID, r.URL.Query().Get("include_ended") == "true")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rels})
}

func (h *Handler) available(w http.ResponseWriter, r *http.Request) {
	entityID, ok := parseID(w, chi.URLParam(r, "entityID"))
	if !ok {
		return
	}
	available, err := h.service.AvailableOwnership(r.Context(), entityID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entity_id": entityID, "available_percentage": available})
}

func (h *Handler) subsidiaryTree(w http.ResponseWriter, r *http.Request) {
	entityID, ok := parseID(w, chi.URLParam(r, "entityID"))
	if !ok {
		return
	}
	tree, warnings, err := h.resolver.SubsidiaryTree(r.Context(), entityID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tree": tree, "warnings": warnings})
}

func (h *Handler) ownershipChain(w http.ResponseWriter, r *http.Request) {
	entityID, ok := parseID(w, chi.URLParam(r, "entityID"))
	if !ok {
		return
	}
	chain, err := h.resolver.OwnershipChain(r.Context(), entityID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"chain": chain})
}

func parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", fmt.Sprintf("%q is not a valid id", raw))
		return 0, false
	}
	return id, true
}
