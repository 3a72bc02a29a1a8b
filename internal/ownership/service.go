package ownership

import (
	"context"
	"fmt"
	"time"

	"github.com/groundwork-re/groundwork/internal/shared"
)

// Service validates and persists ownership edges. Graph traversal lives in
// the Resolver; this layer guards the per-child 100% ceiling.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// GetOwners lists inbound edges for a child entity, active only by default.
func (s *Service) GetOwners(ctx context.Context, childID int64, includeEnded bool) ([]Relationship, error) {
	if childID <= 0 {
		return nil, fmt.Errorf("invalid entity id %d", childID)
	}
	return s.repo.ListByEntity(ctx, childID, ListFilters{AsChild: true, ActiveOnly: !includeEnded})
}

// GetHoldings lists outbound edges for a parent entity.
func (s *Service) GetHoldings(ctx context.Context, parentID int64, includeEnded bool) ([]Relationship, error) {
	if parentID <= 0 {
		return nil, fmt.Errorf("invalid entity id %d", parentID)
	}
	return s.repo.ListByEntity(ctx, parentID, ListFilters{AsParent: true, ActiveOnly: !includeEnded})
}

// AvailableOwnership returns how much of a child remains unallocated:
// 100 minus the sum of its active inbound ownership percentages.
func (s *Service) AvailableOwnership(ctx context.Context, childID int64) (float64, error) {
	owners, err := s.GetOwners(ctx, childID, false)
	if err != nil {
		return 0, err
	}
	allocated := 0.0
	for _, rel := range owners {
		if rel.Type == RelationshipOwnership {
			allocated += rel.Percentage
		}
	}
	return 100 - allocated, nil
}

// CreateRelationship records a new acquisition or JV edge. A write that would
// push the child's active inbound ownership above 100% fails, reporting the
// percentage actually available.
func (s *Service) CreateRelationship(ctx context.Context, rel Relationship) (Relationship, error) {
	if err := s.validate(rel); err != nil {
		return Relationship{}, err
	}
	if rel.Type == "" {
		rel.Type = RelationshipOwnership
	}
	if rel.EffectiveDate.IsZero() {
		rel.EffectiveDate = s.now()
	}
	if rel.Type == RelationshipOwnership {
		available, err := s.AvailableOwnership(ctx, rel.ChildID)
		if err != nil {
			return Relationship{}, err
		}
		if rel.Percentage > available {
			return Relationship{}, &shared.OverallocationError{ChildEntityID: rel.ChildID, Requested: rel.Percentage, Available: available}
		}
	}
	return s.repo.Create(ctx, rel)
}

// UpdateRelationship adjusts an existing edge, enforcing the ceiling with the
// edge's own current share excluded from the allocation.
func (s *Service) UpdateRelationship(ctx context.Context, id int64, rel Relationship) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	rel.ChildID = existing.ChildID
	rel.ParentID = existing.ParentID
	if rel.Type == "" {
		rel.Type = existing.Type
	}
	if rel.EffectiveDate.IsZero() {
		rel.EffectiveDate = existing.EffectiveDate
	}
	if err := s.validate(rel); err != nil {
		return err
	}
	if rel.Type == RelationshipOwnership {
		available, err := s.AvailableOwnership(ctx, existing.ChildID)
		if err != nil {
			return err
		}
		if existing.Type == RelationshipOwnership && existing.ActiveAt(s.now()) {
			available += existing.Percentage
		}
		if rel.Percentage > available {
			return &shared.OverallocationError{ChildEntityID: existing.ChildID, Requested: rel.Percentage, Available: available}
		}
	}
	return s.repo.Update(ctx, id, rel)
}

// EndRelationship closes an edge at the given date, preserving history.
func (s *Service) EndRelationship(ctx context.Context, id int64, date time.Time) error {
	if date.IsZero() {
		date = s.now()
	}
	return s.repo.End(ctx, id, date)
}

// DeleteRelationship removes an edge outright. Reserved for records created
// in error; divestitures should use EndRelationship.
func (s *Service) DeleteRelationship(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(rel Relationship) error {
	if rel.ParentID <= 0 || rel.ChildID <= 0 {
		return fmt.Errorf("parent and child entity ids are required")
	}
	if rel.ParentID == rel.ChildID {
		return fmt.Errorf("entity %d cannot own itself", rel.ParentID)
	}
	if rel.Percentage <= 0 || rel.Percentage > 100 {
		return fmt.Errorf("ownership percentage must be in (0, 100], got %.4f", rel.Percentage)
	}
	return nil
}
