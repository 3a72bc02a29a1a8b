package http

import (
	"context"
	"encoding/json"

	"github.com/groundwork-re/groundwork/internal/consolidation"
)

// Warmer pre-computes report payloads and stores them under the same cache
// keys the handler reads, so a scheduled warmup leaves the next request hot.
type Warmer struct {
	service *consolidation.Service
	cache   *ReportCache
}

func NewWarmer(service *consolidation.Service, cache *ReportCache) *Warmer {
	return &Warmer{service: service, cache: cache}
}

// WarmRoot rebuilds the trial balance (both elimination variants) and the
// summary for one root and caches each payload.
func (w *Warmer) WarmRoot(ctx context.Context, rootID int64) error {
	for _, includeEliminations := range []bool{false, true} {
		tb, err := w.service.ConsolidatedTrialBalance(ctx, rootID, consolidation.Options{IncludeEliminations: includeEliminations})
		if err != nil {
			return err
		}
		payload, err := json.Marshal(tb)
		if err != nil {
			return err
		}
		w.cache.Set(ctx, buildCacheKey("tb", rootID, includeEliminations), payload)
	}

	sum, err := w.service.ConsolidatedSummary(ctx, rootID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	w.cache.Set(ctx, buildCacheKey("summary", rootID, true), payload)
	return nil
}

// Bust clears every cached report.
func (w *Warmer) Bust(ctx context.Context) error {
	return w.cache.Bust(ctx)
}
