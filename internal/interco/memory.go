package interco

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/groundwork-re/groundwork/internal/shared"
)

// MemoryRepository is an in-memory Repository for tests and fixtures.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[int64]Transaction
	nextID  int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[int64]Transaction), nextID: 1}
}

// Put inserts or replaces an entry fixture, assigning an id when missing.
func (m *MemoryRepository) Put(t Transaction) Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.nextID
		m.nextID++
	} else if t.ID >= m.nextID {
		m.nextID = t.ID + 1
	}
	m.entries[t.ID] = t
	return t
}

func (m *MemoryRepository) Get(ctx context.Context, entryID int64) (Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.entries[entryID]
	if !ok {
		return Transaction{}, shared.ErrNotFound
	}
	return t, nil
}

func (m *MemoryRepository) List(ctx context.Context, entityIDs []int64, rng DateRange, flaggedOnly bool) ([]Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make(map[int64]struct{}, len(entityIDs))
	for _, id := range entityIDs {
		ids[id] = struct{}{}
	}
	var result []Transaction
	for _, t := range m.entries {
		if _, ok := ids[t.EntityID]; !ok {
			continue
		}
		if flaggedOnly && !t.Flagged() {
			continue
		}
		if !rng.Contains(t.Date) {
			continue
		}
		result = append(result, t)
	}
	sortTransactions(result)
	return result, nil
}

func (m *MemoryRepository) Flag(ctx context.Context, entryID, counterpartyID int64, at time.Time) (Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.entries[entryID]
	if !ok {
		return Transaction{}, shared.ErrNotFound
	}
	t.CounterpartyEntityID = counterpartyID
	t.Status = StatusPendingElimination
	t.Suggested = false
	t.FlaggedAt = &at
	m.entries[entryID] = t
	return t, nil
}

func (m *MemoryRepository) Suggest(ctx context.Context, entryID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.entries[entryID]
	if !ok || t.Flagged() {
		return shared.ErrNotFound
	}
	t.Suggested = true
	m.entries[entryID] = t
	return nil
}

func (m *MemoryRepository) MarkEliminated(ctx context.Context, entryIDs []int64, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var updated int
	for _, id := range entryIDs {
		t, ok := m.entries[id]
		if !ok || t.Status != StatusPendingElimination {
			continue
		}
		t.Status = StatusEliminated
		t.EliminatedAt = &at
		m.entries[id] = t
		updated++
	}
	return updated, nil
}

func (m *MemoryRepository) ListPending(ctx context.Context, entityIDs []int64) ([]Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make(map[int64]struct{}, len(entityIDs))
	for _, id := range entityIDs {
		ids[id] = struct{}{}
	}
	var result []Transaction
	for _, t := range m.entries {
		if _, ok := ids[t.EntityID]; !ok {
			continue
		}
		if t.Status != StatusPendingElimination {
			continue
		}
		result = append(result, t)
	}
	sortTransactions(result)
	return result, nil
}

func sortTransactions(txs []Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Date.Equal(txs[j].Date) {
			return txs[i].ID < txs[j].ID
		}
		return txs[i].Date.Before(txs[j].Date)
	})
}
