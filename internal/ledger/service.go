package ledger

import (
	"context"
	"fmt"

	"github.com/groundwork-re/groundwork/internal/shared"
)

// Service reads the chart of accounts and current balances for one entity.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetAccounts lists accounts for an entity. Unknown entities are reported as
// not found rather than an empty chart.
func (s *Service) GetAccounts(ctx context.Context, entityID int64, opts ListOptions) ([]Account, error) {
	if entityID <= 0 {
		return nil, fmt.Errorf("invalid entity id %d", entityID)
	}
	exists, err := s.repo.EntityExists(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrNotFound
	}
	return s.repo.List(ctx, entityID, opts)
}

// GetTrialBalance organises active account balances by type. Debit totals sum
// asset/expense/cogs/other-expense balances, credit totals the rest. Header
// accounts exist purely for display grouping and never contribute to totals.
func (s *Service) GetTrialBalance(ctx context.Context, entityID int64) (TrialBalance, error) {
	accounts, err := s.GetAccounts(ctx, entityID, ListOptions{ActiveOnly: true})
	if err != nil {
		return TrialBalance{}, err
	}
	tb := TrialBalance{
		EntityID:       entityID,
		AccountsByType: make(map[AccountType][]Account),
	}
	for _, a := range accounts {
		tb.AccountsByType[a.Type] = append(tb.AccountsByType[a.Type], a)
		if a.IsHeader {
			continue
		}
		if a.Type.IsDebitNature() {
			tb.TotalDebits += a.Balance
		} else {
			tb.TotalCredits += a.Balance
		}
	}
	return tb, nil
}

// Deactivate soft-deletes an account. Accounts carrying template lineage are
// protected and cannot be deactivated here.
func (s *Service) Deactivate(ctx context.Context, accountID int64) error {
	account, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if account.TemplateID != nil {
		return shared.ErrSystemTemplateImmutable
	}
	return s.repo.SetActive(ctx, accountID, false)
}
