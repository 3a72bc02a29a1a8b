package interco

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/groundwork-re/groundwork/internal/platform/httpx"
)

var validate = validator.New()

// DetectRequest scopes a detection or auto-detect run.
type DetectRequest struct {
	EntityIDs []int64    `json:"entity_ids" validate:"required,min=1,dive,gt=0"`
	Start     *time.Time `json:"start"`
	End       *time.Time `json:"end"`
}

func (r DetectRequest) Validate() error { return validate.Struct(r) }

// FlagRequest attaches a counterparty to one ledger entry.
type FlagRequest struct {
	CounterpartyEntityID int64 `json:"counterparty_entity_id" validate:"required,gt=0"`
}

func (r FlagRequest) Validate() error { return validate.Struct(r) }

// EliminateRequest names the transactions to mark eliminated.
type EliminateRequest struct {
	EntryIDs []int64 `json:"entry_ids" validate:"required,min=1,dive,gt=0"`
}

func (r EliminateRequest) Validate() error { return validate.Struct(r) }

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers intercompany classification endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/intercompany/detect", h.detect)
	r.Post("/intercompany/auto-detect", h.autoDetect)
	r.Post("/intercompany/entries/{id}/flag", h.flag)
	r.Post("/intercompany/eliminate", h.eliminate)
	r.Get("/intercompany/entities/{entityID}/eliminations", h.eliminations)
}

func (h *Handler) detect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	txs, err := h.service.Detect(r.Context(), req.EntityIDs, DateRange{Start: req.Start, End: req.End})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": txs})
}

func (h *Handler) autoDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	suggestions, err := h.service.AutoDetect(r.Context(), req.EntityIDs)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (h *Handler) flag(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req FlagRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tx, err := h.service.Flag(r.Context(), id, req.CounterpartyEntityID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tx)
}

func (h *Handler) eliminate(w http.ResponseWriter, r *http.Request) {
	var req EliminateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.MarkEliminated(r.Context(), req.EntryIDs)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requested": len(req.EntryIDs), "eliminated": updated})
}

func (h *Handler) eliminations(w http.ResponseWriter, r *http.Request) {
	rootID, ok := h.parseID(w, chi.URLParam(r, "entityID"))
	if !ok {
		return
	}
	var asOf *time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", fmt.Sprintf("%q is not a valid as_of date", raw))
			return
		}
		asOf = &parsed
	}
	drafts, warnings, err := h.service.GenerateEliminationEntries(r.Context(), rootID, asOf)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"eliminations": drafts, "warnings": warnings})
}

func (h *Handler) parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", fmt.Sprintf("%q is not a valid id", raw))
		return 0, false
	}
	return id, true
}
