package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/groundwork-re/groundwork/internal/consolidation"
	"github.com/groundwork-re/groundwork/internal/platform/httpx"
)

// Handler serves consolidation reports. Trial balance and summary responses
// are cached in redis and rebuilt under singleflight so concurrent pulls for
// the same root share one graph walk.
type Handler struct {
	logger  *slog.Logger
	service *consolidation.Service
	cache   *ReportCache
}

func NewHandler(logger *slog.Logger, service *consolidation.Service, cache *ReportCache) *Handler {
	return &Handler{logger: logger, service: service, cache: cache}
}

// MountRoutes registers consolidation endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/consolidation/{rootID}/tree", h.tree)
	r.Get("/consolidation/{rootID}/group", h.group)
	r.Get("/consolidation/{rootID}/trial-balance", h.trialBalance)
	r.Get("/consolidation/{rootID}/trial-balance.csv", h.trialBalanceCSV)
	r.Get("/consolidation/{rootID}/summary", h.summary)
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	rootID, ok := h.parseID(w, chi.URLParam(r, "rootID"))
	if !ok {
		return
	}
	tree, warnings, err := h.service.ConsolidatedOwnership(r.Context(), rootID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tree": tree, "warnings": warnings})
}

func (h *Handler) group(w http.ResponseWriter, r *http.Request) {
	rootID, ok := h.parseID(w, chi.URLParam(r, "rootID"))
	if !ok {
		return
	}
	members, warnings, err := h.service.ConsolidationGroup(r.Context(), rootID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": members, "warnings": warnings})
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	rootID, ok := h.parseID(w, chi.URLParam(r, "rootID"))
	if !ok {
		return
	}
	includeEliminations := r.URL.Query().Get("include_eliminations") == "true"
	key := reportKey{report: "tb", rootID: rootID, includeEliminations: includeEliminations}

	if payload, hit := h.cache.Get(r.Context(), key.String()); hit {
		recordCacheHit("tb", rootID)
		writeCachedJSON(w, payload)
		return
	}
	recordCacheMiss("tb", rootID)

	started := time.Now()
	result, err, shared := buildShared(r.Context(), key, func(ctx context.Context) (interface{}, error) {
		tb, err := h.service.ConsolidatedTrialBalance(ctx, rootID, consolidation.Options{IncludeEliminations: includeEliminations})
		if err != nil {
			return nil, err
		}
		return tb, nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	observeReportBuild("tb", rootID, time.Since(started))
	tb := result.(consolidation.TrialBalance)
	if !shared {
		if payload, err := json.Marshal(tb); err == nil {
			h.cache.Set(r.Context(), key.String(), payload)
		}
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) trialBalanceCSV(w http.ResponseWriter, r *http.Request) {
	rootID, ok := h.parseID(w, chi.URLParam(r, "rootID"))
	if !ok {
		return
	}
	includeEliminations := r.URL.Query().Get("include_eliminations") == "true"
	tb, err := h.service.ConsolidatedTrialBalance(r.Context(), rootID, consolidation.Options{IncludeEliminations: includeEliminations})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="consolidated-tb-%d.csv"`, rootID))
	if err := writeTrialBalanceCSV(w, tb); err != nil {
		h.log().Error("csv export failed", slog.Int64("root_id", rootID), slog.Any("error", err))
	}
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	rootID, ok := h.parseID(w, chi.URLParam(r, "rootID"))
	if !ok {
		return
	}
	key := reportKey{report: "summary", rootID: rootID, includeEliminations: true}

	if payload, hit := h.cache.Get(r.Context(), key.String()); hit {
		recordCacheHit("summary", rootID)
		writeCachedJSON(w, payload)
		return
	}
	recordCacheMiss("summary", rootID)

	started := time.Now()
	result, err, _ := buildShared(r.Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.ConsolidatedSummary(ctx, rootID)
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	observeReportBuild("summary", rootID, time.Since(started))
	sum := result.(consolidation.Summary)
	if payload, err := json.Marshal(sum); err == nil {
		h.cache.Set(r.Context(), key.String(), payload)
	}
	httpx.JSON(w, http.StatusOK, sum)
}

func (h *Handler) parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", fmt.Sprintf("%q is not a valid root entity id", raw))
		return 0, false
	}
	return id, true
}

func (h *Handler) log() *slog.Logger {
	if h != nil && h.logger != nil {
		return h.logger.With(slog.String("component", "consolidation_http"))
	}
	return slog.Default().With(slog.String("component", "consolidation_http"))
}

func writeCachedJSON(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Cache", "HIT")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
