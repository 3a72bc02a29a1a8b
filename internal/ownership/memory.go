package ownership

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/groundwork-re/groundwork/internal/shared"
)

// MemoryRepository is an in-memory Repository for tests and fixtures. The
// ceiling check mirrors the transactional behaviour of the Postgres store.
type MemoryRepository struct {
	mu     sync.RWMutex
	rels   map[int64]Relationship
	nextID int64
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rels: make(map[int64]Relationship), nextID: 1, now: time.Now}
}

// WithClock overrides the clock for deterministic tests.
func (m *MemoryRepository) WithClock(clock func() time.Time) {
	if clock != nil {
		m.now = clock
	}
}

func (m *MemoryRepository) Get(ctx context.Context, id int64) (Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rel, ok := m.rels[id]
	if !ok {
		return Relationship{}, shared.ErrNotFound
	}
	return rel, nil
}

func (m *MemoryRepository) ListByEntity(ctx context.Context, entityID int64, filters ListFilters) ([]Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	var result []Relationship
	for _, rel := range m.rels {
		switch {
		case filters.AsParent && !filters.AsChild:
			if rel.ParentID != entityID {
				continue
			}
		case filters.AsChild && !filters.AsParent:
			if rel.ChildID != entityID {
				continue
			}
		default:
			if rel.ParentID != entityID && rel.ChildID != entityID {
				continue
			}
		}
		if filters.ActiveOnly && !rel.ActiveAt(now) {
			continue
		}
		result = append(result, rel)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryRepository) Create(ctx context.Context, rel Relationship) (Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rel.Type == RelationshipOwnership {
		available := m.availableLocked(rel.ChildID, 0)
		if rel.Percentage > available {
			return Relationship{}, &shared.OverallocationError{ChildEntityID: rel.ChildID, Requested: rel.Percentage, Available: available}
		}
	}
	rel.ID = m.nextID
	m.nextID++
	rel.CreatedAt = m.now()
	rel.UpdatedAt = rel.CreatedAt
	m.rels[rel.ID] = rel
	return rel, nil
}

func (m *MemoryRepository) Update(ctx context.Context, id int64, rel Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rels[id]
	if !ok {
		return shared.ErrNotFound
	}
	if rel.Type == RelationshipOwnership {
		available := m.availableLocked(existing.ChildID, id)
		if rel.Percentage > available {
			return &shared.OverallocationError{ChildEntityID: existing.ChildID, Requested: rel.Percentage, Available: available}
		}
	}
	existing.Percentage = rel.Percentage
	existing.Type = rel.Type
	existing.EffectiveDate = rel.EffectiveDate
	existing.EndDate = rel.EndDate
	existing.UpdatedAt = m.now()
	m.rels[id] = existing
	return nil
}

func (m *MemoryRepository) End(ctx context.Context, id int64, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rel, ok := m.rels[id]
	if !ok {
		return shared.ErrNotFound
	}
	rel.EndDate = &date
	rel.UpdatedAt = m.now()
	m.rels[id] = rel
	return nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rels[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.rels, id)
	return nil
}

func (m *MemoryRepository) availableLocked(childID, excludeID int64) float64 {
	now := m.now()
	allocated := 0.0
	for _, rel := range m.rels {
		if rel.ChildID != childID || rel.ID == excludeID || rel.Type != RelationshipOwnership {
			continue
		}
		if !rel.ActiveAt(now) {
			continue
		}
		allocated += rel.Percentage
	}
	return 100 - allocated
}
