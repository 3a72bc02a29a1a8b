package entity

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/groundwork-re/groundwork/internal/shared"
)

// MemoryRepository is an in-memory Repository used by tests and fixtures.
// It is injected at construction like the real store, never shared globally.
type MemoryRepository struct {
	mu       sync.RWMutex
	entities map[int64]Entity
	nextID   int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entities: make(map[int64]Entity), nextID: 1}
}

// Put inserts or replaces an entity fixture, assigning an id when missing.
func (m *MemoryRepository) Put(e Entity) Entity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == 0 {
		e.ID = m.nextID
		m.nextID++
	} else if e.ID >= m.nextID {
		m.nextID = e.ID + 1
	}
	m.entities[e.ID] = e
	return e
}

func (m *MemoryRepository) Get(ctx context.Context, id int64) (Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	if !ok {
		return Entity{}, shared.ErrNotFound
	}
	return e, nil
}

func (m *MemoryRepository) List(ctx context.Context, filters ListFilters) ([]Entity, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []Entity
	for _, e := range m.entities {
		if filters.Search != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(filters.Search)) {
			continue
		}
		if filters.Purpose != "" && e.Purpose != filters.Purpose {
			continue
		}
		if filters.ActiveOnly && !e.IsActive {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, len(result), nil
}
