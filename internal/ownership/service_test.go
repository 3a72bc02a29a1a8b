package ownership

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-re/groundwork/internal/shared"
)

func TestCreateRelationshipRejectsSelfOwnership(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	_, err := svc.CreateRelationship(context.Background(), Relationship{ParentID: 1, ChildID: 1, Percentage: 50})
	require.Error(t, err)
}

func TestCreateRelationshipRejectsOverallocation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.CreateRelationship(ctx, Relationship{ParentID: 1, ChildID: 3, Percentage: 70})
	require.NoError(t, err)

	_, err = svc.CreateRelationship(ctx, Relationship{ParentID: 2, ChildID: 3, Percentage: 40})
	var overalloc *shared.OverallocationError
	require.ErrorAs(t, err, &overalloc)
	assert.Equal(t, int64(3), overalloc.ChildEntityID)
	assert.Equal(t, float64(40), overalloc.Requested)
	assert.InDelta(t, 30, overalloc.Available, 1e-9)

	// Exactly filling the remainder is allowed.
	_, err = svc.CreateRelationship(ctx, Relationship{ParentID: 2, ChildID: 3, Percentage: 30})
	require.NoError(t, err)

	available, err := svc.AvailableOwnership(ctx, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0, available, 1e-9)
}

func TestEndedRelationshipFreesAllocation(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	rel, err := svc.CreateRelationship(ctx, Relationship{ParentID: 1, ChildID: 2, Percentage: 100})
	require.NoError(t, err)

	_, err = svc.CreateRelationship(ctx, Relationship{ParentID: 3, ChildID: 2, Percentage: 10})
	require.True(t, shared.IsOverallocation(err))

	require.NoError(t, svc.EndRelationship(ctx, rel.ID, time.Now().Add(-time.Hour)))

	_, err = svc.CreateRelationship(ctx, Relationship{ParentID: 3, ChildID: 2, Percentage: 10})
	require.NoError(t, err)
}

func TestUpdateRelationshipExcludesOwnShare(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	rel, err := svc.CreateRelationship(ctx, Relationship{ParentID: 1, ChildID: 2, Percentage: 60})
	require.NoError(t, err)
	_, err = svc.CreateRelationship(ctx, Relationship{ParentID: 3, ChildID: 2, Percentage: 40})
	require.NoError(t, err)

	// Raising the first edge from 60 to 61 would exceed the ceiling.
	err = svc.UpdateRelationship(ctx, rel.ID, Relationship{Percentage: 61})
	require.True(t, shared.IsOverallocation(err))

	// Lowering it is always fine.
	require.NoError(t, svc.UpdateRelationship(ctx, rel.ID, Relationship{Percentage: 45}))

	available, err := svc.AvailableOwnership(ctx, 2)
	require.NoError(t, err)
	assert.InDelta(t, 15, available, 1e-9)
}

// TestCeilingInvariantUnderRandomSequences drives the service with random
// create/update/end operations and asserts the active inbound sum for every
// child never exceeds 100.
func TestCeilingInvariantUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	var created []int64
	for i := 0; i < 500; i++ {
		switch rng.Intn(3) {
		case 0:
			parent := int64(rng.Intn(8) + 1)
			child := int64(rng.Intn(8) + 1)
			if parent == child {
				continue
			}
			rel, err := svc.CreateRelationship(ctx, Relationship{
				ParentID:   parent,
				ChildID:    child,
				Percentage: float64(rng.Intn(100) + 1),
			})
			if err == nil {
				created = append(created, rel.ID)
			} else if !shared.IsOverallocation(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		case 1:
			if len(created) == 0 {
				continue
			}
			id := created[rng.Intn(len(created))]
			err := svc.UpdateRelationship(ctx, id, Relationship{Percentage: float64(rng.Intn(100) + 1)})
			if err != nil && !shared.IsOverallocation(err) && !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("unexpected error: %v", err)
			}
		case 2:
			if len(created) == 0 {
				continue
			}
			id := created[rng.Intn(len(created))]
			if err := svc.EndRelationship(ctx, id, time.Now().Add(-time.Minute)); err != nil && !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		for child := int64(1); child <= 8; child++ {
			owners, err := svc.GetOwners(ctx, child, false)
			require.NoError(t, err)
			sum := 0.0
			for _, rel := range owners {
				sum += rel.Percentage
			}
			if sum > 100+1e-9 {
				t.Fatalf("ceiling violated for child %d: %.4f", child, sum)
			}
		}
	}
}
