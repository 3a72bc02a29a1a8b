package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-re/groundwork/internal/ledger"
	"github.com/groundwork-re/groundwork/internal/ownership"
	"github.com/groundwork-re/groundwork/internal/shared"
)

func newTestService(t *testing.T) (*Service, *ledger.MemoryRepository, *ownership.MemoryRepository) {
	t.Helper()
	accounts := ledger.NewMemoryRepository()
	rels := ownership.NewMemoryRepository()
	svc := NewService(ledger.NewService(accounts), rels, NewMemoryAlertRepository(), nil, nil)
	svc.WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) })
	return svc, accounts, rels
}

func TestDetectDuplicatesAcrossEntities(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	ctx := context.Background()

	accounts.Put(ledger.Account{EntityID: 10, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true})
	accounts.Put(ledger.Account{EntityID: 10, Number: "6100", Name: "Property Taxes", Type: ledger.AccountTypeExpense, IsActive: true})
	accounts.Put(ledger.Account{EntityID: 20, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true})
	accounts.Put(ledger.Account{EntityID: 20, Number: "2100", Name: "Trade Payables", Type: ledger.AccountTypeLiability, IsActive: true})

	candidates, err := svc.DetectDuplicates(ctx, 10, 20, DetectOptions{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, MatchExact, candidates[0].MatchType)
	assert.Equal(t, "2000", candidates[0].NumberA)
}

func TestDetectDuplicatesSkipsInactive(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	ctx := context.Background()

	accounts.Put(ledger.Account{EntityID: 10, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true})
	accounts.Put(ledger.Account{EntityID: 20, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: false})

	candidates, err := svc.DetectDuplicates(ctx, 10, 20, DetectOptions{})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestDetectDuplicatesRejectsSelfScan(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	accounts.AddEntity(10)

	_, err := svc.DetectDuplicates(context.Background(), 10, 10, DetectOptions{})
	assert.Error(t, err)
}

func TestDetectDuplicatesSkipsAlertedPairs(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	ctx := context.Background()

	a := accounts.Put(ledger.Account{EntityID: 10, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true})
	b := accounts.Put(ledger.Account{EntityID: 20, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true})

	candidates, err := svc.DetectDuplicates(ctx, 10, 20, DetectOptions{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	_, err = svc.CreateAlert(ctx, candidates[0])
	require.NoError(t, err)

	// re-scan proposes nothing for the recorded pair
	candidates, err = svc.DetectDuplicates(ctx, 10, 20, DetectOptions{})
	require.NoError(t, err)
	assert.Empty(t, candidates)

	// order-insensitive: scanning the other direction is also suppressed
	candidates, err = svc.DetectDuplicates(ctx, 20, 10, DetectOptions{})
	require.NoError(t, err)
	assert.Empty(t, candidates)

	_ = a
	_ = b
}

func TestScanRelatedEntities(t *testing.T) {
	svc, accounts, rels := newTestService(t)
	ctx := context.Background()

	accounts.Put(ledger.Account{EntityID: 1, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true})
	accounts.Put(ledger.Account{EntityID: 2, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true})
	accounts.Put(ledger.Account{EntityID: 3, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true})
	accounts.Put(ledger.Account{EntityID: 4, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true})

	// 1 owns 2, 3 owns 1; 4 is unrelated and must not be scanned
	_, err := rels.Create(ctx, ownership.Relationship{ParentID: 1, ChildID: 2, Type: ownership.RelationshipOwnership, Percentage: 100, EffectiveDate: time.Now()})
	require.NoError(t, err)
	_, err = rels.Create(ctx, ownership.Relationship{ParentID: 3, ChildID: 1, Type: ownership.RelationshipOwnership, Percentage: 100, EffectiveDate: time.Now()})
	require.NoError(t, err)

	candidates, err := svc.ScanRelatedEntities(ctx, 1, DetectOptions{})
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
	for _, c := range candidates {
		assert.NotEqual(t, int64(4), c.EntityBID)
	}
}

func TestAlertLifecycle(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	ctx := context.Background()

	accounts.Put(ledger.Account{EntityID: 10, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true})
	accounts.Put(ledger.Account{EntityID: 20, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true})

	candidates, err := svc.DetectDuplicates(ctx, 10, 20, DetectOptions{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	alert, err := svc.CreateAlert(ctx, candidates[0])
	require.NoError(t, err)
	assert.Equal(t, StatusPending, alert.Status)

	confirmed, err := svc.Confirm(ctx, alert.ID, "controller", "verified against GL")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, "controller", confirmed.ReviewedBy)
	require.NotNil(t, confirmed.ReviewedAt)

	// terminal alerts reject further transitions
	_, err = svc.Dismiss(ctx, alert.ID, "controller", "changed my mind")
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
	_, err = svc.MarkMerged(ctx, alert.ID, "controller", "")
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestTransitionUnknownAlert(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Confirm(context.Background(), 9999, "controller", "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetStats(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	ctx := context.Background()

	accounts.Put(ledger.Account{EntityID: 10, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true})
	accounts.Put(ledger.Account{EntityID: 10, Number: "1500", Name: "Construction in Progress", Type: ledger.AccountTypeAsset, IsActive: true})
	accounts.Put(ledger.Account{EntityID: 20, Number: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true})
	accounts.Put(ledger.Account{EntityID: 20, Number: "1510", Name: "Construction in Progress", Type: ledger.AccountTypeAsset, IsActive: true})

	candidates, err := svc.DetectDuplicates(ctx, 10, 20, DetectOptions{})
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	var first DuplicateAlert
	for i, c := range candidates {
		alert, err := svc.CreateAlert(ctx, c)
		require.NoError(t, err)
		if i == 0 {
			first = alert
		}
	}
	_, err = svc.Confirm(ctx, first.ID, "controller", "")
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[StatusPending])
	assert.Equal(t, 1, stats.ByStatus[StatusConfirmed])
	assert.InDelta(t, 1.0, stats.AvgConfidence, 1e-9)
}
