package interco

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-re/groundwork/internal/entity"
	"github.com/groundwork-re/groundwork/internal/ownership"
	"github.com/groundwork-re/groundwork/internal/shared"
)

type intercoFixture struct {
	svc      *Service
	repo     *MemoryRepository
	entities *entity.MemoryRepository
	rels     *ownership.MemoryRepository
}

func newFixture(t *testing.T) intercoFixture {
	t.Helper()
	entities := entity.NewMemoryRepository()
	rels := ownership.NewMemoryRepository()
	repo := NewMemoryRepository()
	resolver := ownership.NewResolver(rels, entities, nil)
	svc := NewService(repo, entities, resolver, nil)
	svc.WithClock(func() time.Time { return time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC) })
	return intercoFixture{svc: svc, repo: repo, entities: entities, rels: rels}
}

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestFlagAndDetect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e1 := f.repo.Put(Transaction{EntityID: 1, AccountID: 10, Amount: 5000, Date: day(5), Description: "Management fee June"})
	f.repo.Put(Transaction{EntityID: 1, AccountID: 11, Amount: 200, Date: day(6), Description: "Office supplies"})

	flagged, err := f.svc.Flag(ctx, e1.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingElimination, flagged.Status)
	assert.Equal(t, int64(2), flagged.CounterpartyEntityID)
	require.NotNil(t, flagged.FlaggedAt)

	found, err := f.svc.Detect(ctx, []int64{1}, DateRange{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, e1.ID, found[0].ID)
}

func TestFlagRejectsSelfCounterparty(t *testing.T) {
	f := newFixture(t)
	e := f.repo.Put(Transaction{EntityID: 1, Amount: 100, Date: day(1), Description: "Transfer"})

	_, err := f.svc.Flag(context.Background(), e.ID, 1)
	assert.Error(t, err)
}

func TestFlagRejectsEliminatedEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.repo.Put(Transaction{EntityID: 1, Amount: 100, Date: day(1), Description: "Transfer"})

	_, err := f.svc.Flag(ctx, e.ID, 2)
	require.NoError(t, err)
	n, err := f.svc.MarkEliminated(ctx, []int64{e.ID})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = f.svc.Flag(ctx, e.ID, 3)
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestDetectDateWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	early := f.repo.Put(Transaction{EntityID: 1, Amount: 100, Date: day(1), Description: "Due from sister"})
	late := f.repo.Put(Transaction{EntityID: 1, Amount: 200, Date: day(20), Description: "Due from sister"})
	_, err := f.svc.Flag(ctx, early.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.Flag(ctx, late.ID, 2)
	require.NoError(t, err)

	start, end := day(1), day(10)
	found, err := f.svc.Detect(ctx, []int64{1}, DateRange{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, early.ID, found[0].ID)

	_, err = f.svc.Detect(ctx, []int64{1}, DateRange{Start: &end, End: &start})
	assert.Error(t, err)
}

func TestMarkEliminatedOnlyPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.repo.Put(Transaction{EntityID: 1, Amount: 100, Date: day(1), Description: "Transfer"})
	unflagged := f.repo.Put(Transaction{EntityID: 1, Amount: 50, Date: day(2), Description: "Rent"})
	_, err := f.svc.Flag(ctx, pending.ID, 2)
	require.NoError(t, err)

	n, err := f.svc.MarkEliminated(ctx, []int64{pending.ID, unflagged.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.repo.Get(ctx, unflagged.ID)
	require.NoError(t, err)
	assert.False(t, got.Flagged())
}

func TestAutoDetectSuggestsWithoutTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.entities.Put(entity.Entity{ID: 1, Name: "Harbor Holdings", IsActive: true})
	f.entities.Put(entity.Entity{ID: 2, Name: "Oakline LLC", IsActive: true})

	hit := f.repo.Put(Transaction{EntityID: 1, Amount: 1200, Date: day(3), Description: "Management fee due from Oakline LLC"})
	f.repo.Put(Transaction{EntityID: 1, Amount: 80, Date: day(4), Description: "Utility bill"})
	alreadyFlagged := f.repo.Put(Transaction{EntityID: 1, Amount: 500, Date: day(5), Description: "Intercompany transfer"})
	_, err := f.svc.Flag(ctx, alreadyFlagged.ID, 2)
	require.NoError(t, err)

	suggestions, err := f.svc.AutoDetect(ctx, []int64{1})
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, hit.ID, suggestions[0].Transaction.ID)
	assert.Equal(t, "management_fee", suggestions[0].Pattern)
	assert.Equal(t, int64(2), suggestions[0].GuessedCounterparty)

	// suggestion leaves the entry unflagged
	got, err := f.repo.Get(ctx, hit.ID)
	require.NoError(t, err)
	assert.True(t, got.Suggested)
	assert.False(t, got.Flagged())
}

func TestAutoDetectPatternTable(t *testing.T) {
	cases := []struct {
		desc    string
		pattern string
		ok      bool
	}{
		{"Intercompany settlement", "intercompany", true},
		{"Inter-company balance", "intercompany", true},
		{"Cash transferred to project", "transfer", true},
		{"Mgmt fee Q2", "management_fee", true},
		{"Overhead allocated to site", "allocation", true},
		{"Due to parent", "due_to_from", true},
		{"Loan from Harbor", "loan_to_from", true},
		{"Receivable from affiliate", "receivable_payable", true},
		{"Monthly rent", "", false},
	}
	for _, tc := range cases {
		pattern, ok := matchPattern(tc.desc)
		if ok != tc.ok || pattern != tc.pattern {
			t.Errorf("matchPattern(%q) = (%q, %v), want (%q, %v)", tc.desc, pattern, ok, tc.pattern, tc.ok)
		}
	}
}

func TestGenerateEliminationEntriesNetZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.entities.Put(entity.Entity{ID: 1, Name: "Harbor Holdings", IsActive: true})
	f.entities.Put(entity.Entity{ID: 2, Name: "Oakline LLC", IsActive: true})
	f.entities.Put(entity.Entity{ID: 3, Name: "Pinecrest LLC", IsActive: true})
	_, err := f.rels.Create(ctx, ownership.Relationship{ParentID: 1, ChildID: 2, Type: ownership.RelationshipOwnership, Percentage: 100, EffectiveDate: day(1)})
	require.NoError(t, err)
	_, err = f.rels.Create(ctx, ownership.Relationship{ParentID: 1, ChildID: 3, Type: ownership.RelationshipOwnership, Percentage: 60, EffectiveDate: day(1)})
	require.NoError(t, err)

	// receivable held by 2 against 3
	rec := f.repo.Put(Transaction{EntityID: 2, Amount: 1500.004, Date: day(10), Description: "Due from Pinecrest"})
	// payable owed by 2 to 1
	pay := f.repo.Put(Transaction{EntityID: 2, Amount: -800, Date: day(11), Description: "Due to Harbor"})
	// counterparty outside the group
	outside := f.repo.Put(Transaction{EntityID: 2, Amount: 300, Date: day(12), Description: "Due from outsider"})
	_, err = f.svc.Flag(ctx, rec.ID, 3)
	require.NoError(t, err)
	_, err = f.svc.Flag(ctx, pay.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.Flag(ctx, outside.ID, 99)
	require.NoError(t, err)

	drafts, warnings, err := f.svc.GenerateEliminationEntries(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "entity 99")

	for _, d := range drafts {
		require.Len(t, d.Lines, 2)
		var debits, credits float64
		for _, line := range d.Lines {
			debits += line.Debit
			credits += line.Credit
		}
		assert.InDelta(t, 0, debits-credits, 1e-9)
		assert.NotEmpty(t, d.Reference)
	}

	// amount rounded to cents, debit on the payable side
	first := drafts[0]
	assert.Equal(t, rec.ID, first.TransactionID)
	assert.Equal(t, 1500.0, first.Amount)
	assert.Equal(t, int64(3), first.Lines[0].EntityID)
	assert.Equal(t, int64(2), first.Lines[1].EntityID)

	// negative amount swaps receivable and payable sides
	second := drafts[1]
	assert.Equal(t, pay.ID, second.TransactionID)
	assert.Equal(t, int64(2), second.Lines[0].EntityID)
	assert.Equal(t, int64(1), second.Lines[1].EntityID)
}

func TestGenerateEliminationEntriesAsOfFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.entities.Put(entity.Entity{ID: 1, Name: "Harbor Holdings", IsActive: true})
	f.entities.Put(entity.Entity{ID: 2, Name: "Oakline LLC", IsActive: true})
	_, err := f.rels.Create(ctx, ownership.Relationship{ParentID: 1, ChildID: 2, Type: ownership.RelationshipOwnership, Percentage: 100, EffectiveDate: day(1)})
	require.NoError(t, err)

	early := f.repo.Put(Transaction{EntityID: 2, Amount: 100, Date: day(5), Description: "Due to Harbor"})
	late := f.repo.Put(Transaction{EntityID: 2, Amount: 200, Date: day(25), Description: "Due to Harbor"})
	_, err = f.svc.Flag(ctx, early.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.Flag(ctx, late.ID, 1)
	require.NoError(t, err)

	asOf := day(15)
	drafts, _, err := f.svc.GenerateEliminationEntries(ctx, 1, &asOf)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, early.ID, drafts[0].TransactionID)
	assert.True(t, drafts[0].AsOf.Equal(asOf))
}
