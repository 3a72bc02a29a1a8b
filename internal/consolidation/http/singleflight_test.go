package http

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportKeyMatchesCacheKey(t *testing.T) {
	key := reportKey{report: "tb", rootID: 7, includeEliminations: true}
	assert.Equal(t, buildCacheKey("tb", 7, true), key.String())

	other := reportKey{report: "tb", rootID: 7}
	assert.NotEqual(t, key.String(), other.String())
}

func TestBuildSharedSurvivesCanceledWaiter(t *testing.T) {
	key := reportKey{report: "summary", rootID: 42, includeEliminations: true}
	release := make(chan struct{})
	build := func(ctx context.Context) (interface{}, error) {
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return "built", nil
	}

	// First caller gives up while the build is still in flight.
	ctx, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err, _ := buildShared(ctx, key, build)
		firstDone <- err
	}()
	cancel()
	require.ErrorIs(t, <-firstDone, context.Canceled)

	// A later caller on the same key must still get the successful result:
	// the build runs on a context detached from the canceled waiter.
	type outcome struct {
		val interface{}
		err error
	}
	secondDone := make(chan outcome, 1)
	go func() {
		val, err, _ := buildShared(context.Background(), key, build)
		secondDone <- outcome{val: val, err: err}
	}()
	close(release)

	got := <-secondDone
	require.NoError(t, got.err)
	assert.Equal(t, "built", got.val)
}
