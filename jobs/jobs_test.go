package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-re/groundwork/internal/dedup"
	"github.com/groundwork-re/groundwork/internal/entity"
)

type fakeDetector struct {
	scanned []int64
	found   map[int64][]dedup.Candidate
	alerts  []dedup.Candidate
}

func (f *fakeDetector) ScanRelatedEntities(ctx context.Context, entityID int64, opts dedup.DetectOptions) ([]dedup.Candidate, error) {
	f.scanned = append(f.scanned, entityID)
	return f.found[entityID], nil
}

func (f *fakeDetector) CreateAlert(ctx context.Context, candidate dedup.Candidate) (dedup.DuplicateAlert, error) {
	f.alerts = append(f.alerts, candidate)
	return dedup.DuplicateAlert{ID: int64(len(f.alerts))}, nil
}

func TestDedupScanJobScopedToOneEntity(t *testing.T) {
	detector := &fakeDetector{found: map[int64][]dedup.Candidate{
		7: {{EntityAID: 7, EntityBID: 8, AccountAID: 1, AccountBID: 2, MatchType: dedup.MatchExact, Confidence: 1}},
	}}
	entities := entity.NewMemoryRepository()
	job := NewDedupScanJob(detector, entities, nil, nil)

	task, err := NewDedupScanTask("7")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, []int64{7}, detector.scanned)
	require.Len(t, detector.alerts, 1)
	assert.Equal(t, dedup.MatchExact, detector.alerts[0].MatchType)
}

func TestDedupScanJobAllActiveEntities(t *testing.T) {
	detector := &fakeDetector{found: map[int64][]dedup.Candidate{}}
	entities := entity.NewMemoryRepository()
	entities.Put(entity.Entity{ID: 1, Name: "Harbor Holdings", IsActive: true})
	entities.Put(entity.Entity{ID: 2, Name: "Oakline LLC", IsActive: true})
	entities.Put(entity.Entity{ID: 3, Name: "Dormant LLC", IsActive: false})

	job := NewDedupScanJob(detector, entities, nil, nil)
	task, err := NewDedupScanTask("all")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.ElementsMatch(t, []int64{1, 2}, detector.scanned)
}

func TestDedupScanJobInvalidScope(t *testing.T) {
	job := NewDedupScanJob(&fakeDetector{}, entity.NewMemoryRepository(), nil, nil)
	task, err := NewDedupScanTask("not-a-number")
	require.NoError(t, err)
	assert.Error(t, job.Handle(context.Background(), task))
}

type fakeWarmer struct {
	busted bool
	warmed []int64
	fail   error
}

func (f *fakeWarmer) WarmRoot(ctx context.Context, rootID int64) error {
	if f.fail != nil {
		return f.fail
	}
	f.warmed = append(f.warmed, rootID)
	return nil
}

func (f *fakeWarmer) Bust(ctx context.Context) error {
	f.busted = true
	return nil
}

func TestConsolWarmupJobWarmsHoldings(t *testing.T) {
	warmer := &fakeWarmer{}
	entities := entity.NewMemoryRepository()
	entities.Put(entity.Entity{ID: 1, Name: "Harbor Holdings", Purpose: entity.PurposeHolding, IsActive: true})
	entities.Put(entity.Entity{ID: 2, Name: "Oakline LLC", Purpose: entity.PurposeOperating, IsActive: true})
	entities.Put(entity.Entity{ID: 3, Name: "Summit Holdings", Purpose: entity.PurposeHolding, IsActive: true})

	job := NewConsolWarmupJob(warmer, entities, nil, nil)
	task, err := NewConsolWarmupTask("all")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.True(t, warmer.busted)
	assert.ElementsMatch(t, []int64{1, 3}, warmer.warmed)
}

func TestConsolWarmupJobPropagatesFailure(t *testing.T) {
	warmer := &fakeWarmer{fail: errors.New("graph walk failed")}
	entities := entity.NewMemoryRepository()
	entities.Put(entity.Entity{ID: 1, Name: "Harbor Holdings", Purpose: entity.PurposeHolding, IsActive: true})

	job := NewConsolWarmupJob(warmer, entities, nil, nil)
	task, err := NewConsolWarmupTask("1")
	require.NoError(t, err)
	assert.Error(t, job.Handle(context.Background(), task))
}
