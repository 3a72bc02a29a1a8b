package http

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// reportKey identifies one buildable report variant. Its string form doubles
// as the redis cache key, so the flight group and the cache always agree on
// what counts as the same report.
type reportKey struct {
	report              string
	rootID              int64
	includeEliminations bool
}

func (k reportKey) String() string {
	return buildCacheKey(k.report, k.rootID, k.includeEliminations)
}

var reportFlights singleflight.Group

// buildShared collapses concurrent builds of the same report into one. The
// build runs detached from the caller's context so one canceled request
// cannot poison the result handed to the other waiters; each waiter still
// honors its own deadline while waiting.
func buildShared(ctx context.Context, key reportKey, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	buildCtx := context.WithoutCancel(ctx)
	resultChan := reportFlights.DoChan(key.String(), func() (interface{}, error) {
		return fn(buildCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
