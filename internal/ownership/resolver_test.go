package ownership

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-re/groundwork/internal/entity"
)

type graphFixture struct {
	entities *entity.MemoryRepository
	rels     *MemoryRepository
}

func newGraphFixture() *graphFixture {
	return &graphFixture{
		entities: entity.NewMemoryRepository(),
		rels:     NewMemoryRepository(),
	}
}

func (f *graphFixture) addEntity(id int64, name string) {
	f.entities.Put(entity.Entity{ID: id, Name: name, Purpose: entity.PurposeProject, IsActive: true})
}

func (f *graphFixture) own(parent, child int64, pct float64) {
	_, err := f.rels.Create(context.Background(), Relationship{
		ParentID:      parent,
		ChildID:       child,
		Percentage:    pct,
		Type:          RelationshipOwnership,
		EffectiveDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		panic(err)
	}
}

func (f *graphFixture) resolver() *Resolver {
	return NewResolver(f.rels, f.entities, nil)
}

func TestSubsidiaryTreeEffectiveOwnership(t *testing.T) {
	f := newGraphFixture()
	f.addEntity(1, "Harbor Holdings")
	f.addEntity(2, "Oakline Operating")
	f.addEntity(3, "Pinecrest Project")
	f.own(1, 2, 100)
	f.own(2, 3, 80)

	tree, warnings, err := f.resolver().SubsidiaryTree(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, float64(100), tree.EffectiveOwnership)
	require.Len(t, tree.Children, 1)
	oak := tree.Children[0]
	assert.Equal(t, int64(2), oak.EntityID)
	assert.Equal(t, float64(100), oak.EffectiveOwnership)
	require.Len(t, oak.Children, 1)
	pine := oak.Children[0]
	assert.Equal(t, int64(3), pine.EntityID)
	assert.Equal(t, float64(80), pine.DirectOwnership)
	assert.Equal(t, float64(80), pine.EffectiveOwnership)
	assert.Equal(t, 2, pine.Depth)
}

func TestSubsidiaryTreeCycleTruncates(t *testing.T) {
	f := newGraphFixture()
	f.addEntity(1, "Alpha")
	f.addEntity(2, "Beta")
	f.own(1, 2, 60)
	f.own(2, 1, 40) // back-edge: a real acquisition pipeline cannot be circular

	tree, warnings, err := f.resolver().SubsidiaryTree(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	beta := tree.Children[0]
	require.Len(t, beta.Children, 1)
	assert.True(t, beta.Children[0].Truncated)
	assert.Empty(t, beta.Children[0].Children)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "cycle")
	assert.Contains(t, warnings[0], "entity 1")
}

func TestSubsidiaryTreeMissingChildRecordsWarning(t *testing.T) {
	f := newGraphFixture()
	f.addEntity(1, "Alpha")
	f.own(1, 9, 50) // entity 9 never registered

	tree, warnings, err := f.resolver().SubsidiaryTree(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, tree.Children)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "entity 9")
}

func TestFlattenGroupDiamondSumsContributions(t *testing.T) {
	f := newGraphFixture()
	f.addEntity(1, "Group")
	f.addEntity(2, "Harbor Holdings")
	f.addEntity(3, "Fairview Capital")
	f.addEntity(4, "Oakline Operating")
	f.addEntity(5, "Pinecrest Project")
	f.own(1, 2, 100)
	f.own(1, 3, 100)
	f.own(2, 4, 100)
	f.own(4, 5, 80)
	f.own(3, 5, 20)

	// From Harbor only the 80% path exists; Fairview is not a descendant.
	harborTree, _, err := f.resolver().SubsidiaryTree(context.Background(), 2)
	require.NoError(t, err)
	harbor := FlattenGroup(harborTree)
	assert.Equal(t, float64(80), findMember(t, harbor, 5).EffectiveOwnership)

	// From the synthetic Group root both paths contribute and sum to 100.
	groupTree, _, err := f.resolver().SubsidiaryTree(context.Background(), 1)
	require.NoError(t, err)
	group := FlattenGroup(groupTree)
	pine := findMember(t, group, 5)
	assert.InDelta(t, 100, pine.EffectiveOwnership, 1e-9)
	assert.Equal(t, 2, pine.Depth)
}

func TestOwnershipChainWalksUpward(t *testing.T) {
	f := newGraphFixture()
	f.addEntity(1, "Harbor Holdings")
	f.addEntity(2, "Oakline Operating")
	f.addEntity(3, "Pinecrest Project")
	f.addEntity(4, "Fairview Capital")
	f.own(1, 2, 100)
	f.own(2, 3, 80)
	f.own(4, 3, 20)

	chain, err := f.resolver().OwnershipChain(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, 1, chain[0].Depth)
	assert.Equal(t, 1, chain[1].Depth)
	assert.Equal(t, int64(1), chain[2].EntityID)
	assert.Equal(t, 2, chain[2].Depth)
}

func TestOwnershipChainCycleTerminates(t *testing.T) {
	f := newGraphFixture()
	f.addEntity(1, "Alpha")
	f.addEntity(2, "Beta")
	f.own(1, 2, 50)
	f.own(2, 1, 50)

	chain, err := f.resolver().OwnershipChain(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.True(t, chain[1].Truncated)
}

func TestEffectiveOwnershipMonotonicDecay(t *testing.T) {
	f := newGraphFixture()
	f.addEntity(1, "Root")
	// A five-level chain of decreasing stakes.
	stakes := []float64{90, 75, 60, 51, 33}
	for i, pct := range stakes {
		id := int64(i + 2)
		f.addEntity(id, "Level")
		f.own(int64(i+1), id, pct)
	}

	tree, _, err := f.resolver().SubsidiaryTree(context.Background(), 1)
	require.NoError(t, err)

	node := tree
	expected := 100.0
	for _, pct := range stakes {
		require.Len(t, node.Children, 1)
		node = node.Children[0]
		expected = expected * pct / 100
		assert.InDelta(t, expected, node.EffectiveOwnership, 1e-9)
		assert.LessOrEqual(t, node.EffectiveOwnership, node.DirectOwnership)
	}
}

func findMember(t *testing.T, members []GroupMember, entityID int64) GroupMember {
	t.Helper()
	for _, m := range members {
		if m.EntityID == entityID {
			return m
		}
	}
	t.Fatalf("entity %d not found in group", entityID)
	return GroupMember{}
}
