package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/groundwork-re/groundwork/internal/shared"
)

// MemoryRepository is an in-memory Repository for tests and fixtures.
type MemoryRepository struct {
	mu       sync.RWMutex
	entities map[int64]struct{}
	accounts map[int64]Account
	nextID   int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entities: make(map[int64]struct{}),
		accounts: make(map[int64]Account),
		nextID:   1,
	}
}

// AddEntity registers an entity id so lookups against it succeed.
func (m *MemoryRepository) AddEntity(entityID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[entityID] = struct{}{}
}

// Put inserts or replaces an account fixture, assigning an id when missing.
func (m *MemoryRepository) Put(a Account) Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.nextID
		m.nextID++
	} else if a.ID >= m.nextID {
		m.nextID = a.ID + 1
	}
	m.accounts[a.ID] = a
	m.entities[a.EntityID] = struct{}{}
	return a
}

func (m *MemoryRepository) EntityExists(ctx context.Context, entityID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entities[entityID]
	return ok, nil
}

func (m *MemoryRepository) List(ctx context.Context, entityID int64, opts ListOptions) ([]Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []Account
	for _, a := range m.accounts {
		if a.EntityID != entityID {
			continue
		}
		if opts.ActiveOnly && !a.IsActive {
			continue
		}
		if opts.Type != "" && a.Type != opts.Type {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (m *MemoryRepository) Get(ctx context.Context, accountID int64) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return a, nil
}

func (m *MemoryRepository) SetActive(ctx context.Context, accountID int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return shared.ErrNotFound
	}
	a.IsActive = active
	m.accounts[accountID] = a
	return nil
}
