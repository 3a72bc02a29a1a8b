package ledger

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

// MountRoutes registers ledger read endpoints under an entity scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{entityID}/accounts", h.accounts)
	r.Get("/{entityID}/trial-balance", h.trialBalance)
}

func (h *Handler) accounts(w http.ResponseWriter, r *http.Request) {
	entityID, err := strconv.ParseInt(chi.URLParam(r, "entityID"), 10, 64)
	if err != nil || entityID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "entity id must be a positive integer")
		return
	}
	opts := ListOptions{
		ActiveOnly: r.URL.Query().Get("active") != "false",
		Type:       AccountType(r.URL.Query().Get("type")),
	}
	accounts, err := h.service.GetAccounts(r.Context(), entityID, opts)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": accounts, "total": len(accounts)})
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	entityID, err := strconv.ParseInt(chi.URLParam(r, "entityID"), 10, 64)
	if err != nil || entityID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "entity id must be a positive integer")
		return
	}
	tb, err := h.service.GetTrialBalance(r.Context(), entityID)
	if err != nil {
		h.logger.Error("trial balance", slog.Int64("entity_id", entityID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}
