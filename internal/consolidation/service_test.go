package consolidation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-re/groundwork/internal/entity"
	"github.com/groundwork-re/groundwork/internal/interco"
	"github.com/groundwork-re/groundwork/internal/ledger"
	"github.com/groundwork-re/groundwork/internal/ownership"
)

type consolFixture struct {
	svc      *Service
	entities *entity.MemoryRepository
	rels     *ownership.MemoryRepository
	accounts *ledger.MemoryRepository
	entries  *interco.MemoryRepository
}

// groupFixture builds Harbor Holdings owning Oakline 100% and Pinecrest 60%.
func groupFixture(t *testing.T) consolFixture {
	t.Helper()
	entities := entity.NewMemoryRepository()
	rels := ownership.NewMemoryRepository()
	accounts := ledger.NewMemoryRepository()
	entries := interco.NewMemoryRepository()

	entities.Put(entity.Entity{ID: 1, Name: "Harbor Holdings", IsActive: true})
	entities.Put(entity.Entity{ID: 2, Name: "Oakline LLC", IsActive: true})
	entities.Put(entity.Entity{ID: 3, Name: "Pinecrest LLC", IsActive: true})

	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := rels.Create(ctx, ownership.Relationship{ParentID: 1, ChildID: 2, Type: ownership.RelationshipOwnership, Percentage: 100, EffectiveDate: start}); err != nil {
		t.Fatalf("create edge: %v", err)
	}
	if _, err := rels.Create(ctx, ownership.Relationship{ParentID: 1, ChildID: 3, Type: ownership.RelationshipOwnership, Percentage: 60, EffectiveDate: start}); err != nil {
		t.Fatalf("create edge: %v", err)
	}

	resolver := ownership.NewResolver(rels, entities, nil)
	svc := NewService(resolver, ledger.NewService(accounts), entries, nil)
	svc.WithClock(func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) })
	return consolFixture{svc: svc, entities: entities, rels: rels, accounts: accounts, entries: entries}
}

func TestConsolidationGroup(t *testing.T) {
	f := groupFixture(t)

	members, warnings, err := f.svc.ConsolidationGroup(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, members, 3)
	assert.Equal(t, int64(1), members[0].EntityID)
	assert.Equal(t, 100.0, members[0].EffectiveOwnership)
	assert.Equal(t, 60.0, members[2].EffectiveOwnership)
}

func TestConsolidatedTrialBalanceScalesAndMerges(t *testing.T) {
	f := groupFixture(t)
	ctx := context.Background()

	// same account number on two entities merges into one line
	f.accounts.Put(ledger.Account{EntityID: 1, Number: "1000", Name: "Operating Cash", Type: ledger.AccountTypeAsset, Balance: 10000, IsActive: true})
	f.accounts.Put(ledger.Account{EntityID: 2, Number: "1000", Name: "Operating Cash", Type: ledger.AccountTypeAsset, Balance: 5000, IsActive: true})
	f.accounts.Put(ledger.Account{EntityID: 3, Number: "1000", Name: "Operating Cash", Type: ledger.AccountTypeAsset, Balance: 2000, IsActive: true})
	f.accounts.Put(ledger.Account{EntityID: 3, Number: "4000", Name: "Rental Income", Type: ledger.AccountTypeRevenue, Balance: 1000, IsActive: true})
	// headers never contribute
	f.accounts.Put(ledger.Account{EntityID: 1, Number: "0999", Name: "Assets", Type: ledger.AccountTypeAsset, IsHeader: true, Balance: 99999, IsActive: true})

	tb, err := f.svc.ConsolidatedTrialBalance(ctx, 1, Options{})
	require.NoError(t, err)
	require.Len(t, tb.Accounts, 2)

	cash := tb.Accounts[0]
	assert.Equal(t, "1000", cash.Number)
	// 10000*1.0 + 5000*1.0 + 2000*0.6
	assert.InDelta(t, 16200, cash.TotalBalance, 1e-9)
	require.Len(t, cash.Contributions, 3)
	assert.InDelta(t, 1200, cash.Contributions[2].ScaledBalance, 1e-9)
	assert.Equal(t, 60.0, cash.Contributions[2].OwnershipPct)
	assert.Equal(t, 2000.0, cash.Contributions[2].RawBalance)

	income := tb.Accounts[1]
	assert.Equal(t, "4000", income.Number)
	assert.InDelta(t, 600, income.TotalBalance, 1e-9)

	assert.InDelta(t, 16200, tb.TotalDebits, 1e-9)
	assert.InDelta(t, 600, tb.TotalCredits, 1e-9)
}

func TestConsolidatedTrialBalanceExcludesUnreadableMember(t *testing.T) {
	f := groupFixture(t)

	// entity 3 has no chart registered, so the ledger reports it unknown
	f.accounts.Put(ledger.Account{EntityID: 1, Number: "1000", Name: "Operating Cash", Type: ledger.AccountTypeAsset, Balance: 100, IsActive: true})
	f.accounts.Put(ledger.Account{EntityID: 2, Number: "1000", Name: "Operating Cash", Type: ledger.AccountTypeAsset, Balance: 50, IsActive: true})

	tb, err := f.svc.ConsolidatedTrialBalance(context.Background(), 1, Options{})
	require.NoError(t, err)
	require.Len(t, tb.ExcludedEntities, 1)
	assert.Equal(t, int64(3), tb.ExcludedEntities[0])
	require.NotEmpty(t, tb.Warnings)
	assert.Contains(t, tb.Warnings[0], "Pinecrest")
	assert.InDelta(t, 150, tb.TotalDebits, 1e-9)
}

func TestConsolidatedTrialBalancePendingEliminationsStayGross(t *testing.T) {
	f := groupFixture(t)
	ctx := context.Background()

	f.accounts.Put(ledger.Account{EntityID: 1, Number: "1200", Name: "Due from Oakline", Type: ledger.AccountTypeAsset, Balance: 500, IsActive: true})
	f.accounts.Put(ledger.Account{EntityID: 2, Number: "2200", Name: "Due to Harbor", Type: ledger.AccountTypeLiability, Balance: 500, IsActive: true})
	f.accounts.AddEntity(3)

	e := f.entries.Put(interco.Transaction{EntityID: 1, CounterpartyEntityID: 2, Amount: 500, Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Description: "Due from Oakline", Status: interco.StatusPendingElimination})

	with, err := f.svc.ConsolidatedTrialBalance(ctx, 1, Options{IncludeEliminations: true})
	require.NoError(t, err)
	require.Len(t, with.PendingEliminations, 1)
	assert.Equal(t, e.ID, with.PendingEliminations[0].ID)
	assert.InDelta(t, 500, with.PendingEliminationTotal, 1e-9)

	without, err := f.svc.ConsolidatedTrialBalance(ctx, 1, Options{})
	require.NoError(t, err)
	assert.Empty(t, without.PendingEliminations)

	// totals identical either way: eliminations are reported, not netted
	assert.InDelta(t, without.TotalDebits, with.TotalDebits, 1e-9)
	assert.InDelta(t, without.TotalCredits, with.TotalCredits, 1e-9)
}

func TestConsolidatedSummary(t *testing.T) {
	f := groupFixture(t)
	ctx := context.Background()

	f.accounts.Put(ledger.Account{EntityID: 1, Number: "1000", Name: "Operating Cash", Type: ledger.AccountTypeAsset, Balance: 20000, IsActive: true})
	f.accounts.Put(ledger.Account{EntityID: 2, Number: "2000", Name: "Notes Payable", Type: ledger.AccountTypeLiability, Balance: 8000, IsActive: true})
	f.accounts.Put(ledger.Account{EntityID: 2, Number: "3000", Name: "Member Equity", Type: ledger.AccountTypeEquity, Balance: 4000, IsActive: true})
	f.accounts.Put(ledger.Account{EntityID: 3, Number: "4000", Name: "Rental Income", Type: ledger.AccountTypeRevenue, Balance: 5000, IsActive: true})
	f.accounts.Put(ledger.Account{EntityID: 3, Number: "6000", Name: "Property Management", Type: ledger.AccountTypeExpense, Balance: 2000, IsActive: true})

	sum, err := f.svc.ConsolidatedSummary(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 20000, sum.Assets, 1e-9)
	assert.InDelta(t, 8000, sum.Liabilities, 1e-9)
	assert.InDelta(t, 4000, sum.Equity, 1e-9)
	assert.InDelta(t, 3000, sum.Revenue, 1e-9)  // 5000 * 0.6
	assert.InDelta(t, 1200, sum.Expenses, 1e-9) // 2000 * 0.6
	assert.InDelta(t, 1800, sum.NetIncome, 1e-9)
	assert.InDelta(t, 12000, sum.NetWorth, 1e-9)
	assert.Equal(t, 3, sum.EntityCount)
	assert.Equal(t, "Harbor Holdings", sum.RootName)
}

func TestConsolidatedSummaryReportsPendingEliminationAmount(t *testing.T) {
	f := groupFixture(t)
	ctx := context.Background()

	f.accounts.Put(ledger.Account{EntityID: 1, Number: "1200", Name: "Due from Oakline", Type: ledger.AccountTypeAsset, Balance: 750, IsActive: true})
	f.accounts.AddEntity(2)
	f.accounts.AddEntity(3)

	f.entries.Put(interco.Transaction{EntityID: 1, CounterpartyEntityID: 2, Amount: 500, Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Description: "Due from Oakline", Status: interco.StatusPendingElimination})
	f.entries.Put(interco.Transaction{EntityID: 2, CounterpartyEntityID: 1, Amount: -250, Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), Description: "Due to Harbor", Status: interco.StatusPendingElimination})

	sum, err := f.svc.ConsolidatedSummary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.PendingEliminations)
	// amounts sum by absolute value so opposite signs cannot cancel
	assert.InDelta(t, 750, sum.PendingEliminationTotal, 1e-9)
}

func TestConsolidatedOwnershipDelegates(t *testing.T) {
	f := groupFixture(t)

	tree, warnings, err := f.svc.ConsolidatedOwnership(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.NotNil(t, tree)
	assert.Equal(t, int64(1), tree.EntityID)
	assert.Len(t, tree.Children, 2)
}
