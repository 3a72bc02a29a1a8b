package dedup

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/groundwork-re/groundwork/internal/shared"
)

// MemoryAlertRepository is an in-memory AlertRepository for tests.
type MemoryAlertRepository struct {
	mu     sync.RWMutex
	alerts map[int64]DuplicateAlert
	nextID int64
}

func NewMemoryAlertRepository() *MemoryAlertRepository {
	return &MemoryAlertRepository{alerts: make(map[int64]DuplicateAlert), nextID: 1}
}

func (m *MemoryAlertRepository) Create(ctx context.Context, alert DuplicateAlert) (DuplicateAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert.ID = m.nextID
	m.nextID++
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	m.alerts[alert.ID] = alert
	return alert, nil
}

func (m *MemoryAlertRepository) Get(ctx context.Context, id int64) (DuplicateAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	alert, ok := m.alerts[id]
	if !ok {
		return DuplicateAlert{}, shared.ErrNotFound
	}
	return alert, nil
}

func (m *MemoryAlertRepository) Update(ctx context.Context, alert DuplicateAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[alert.ID]; !ok {
		return shared.ErrNotFound
	}
	m.alerts[alert.ID] = alert
	return nil
}

func (m *MemoryAlertRepository) List(ctx context.Context, filters ListFilters) ([]DuplicateAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []DuplicateAlert
	for _, alert := range m.alerts {
		if filters.EntityID > 0 && alert.EntityAID != filters.EntityID && alert.EntityBID != filters.EntityID {
			continue
		}
		if filters.Status != "" && alert.Status != filters.Status {
			continue
		}
		result = append(result, alert)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryAlertRepository) ExistsForPair(ctx context.Context, accountAID, accountBID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, alert := range m.alerts {
		if (alert.AccountAID == accountAID && alert.AccountBID == accountBID) ||
			(alert.AccountAID == accountBID && alert.AccountBID == accountAID) {
			return true, nil
		}
	}
	return false, nil
}
