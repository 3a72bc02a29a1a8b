package consolidation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/groundwork-re/groundwork/internal/interco"
	"github.com/groundwork-re/groundwork/internal/ledger"
	"github.com/groundwork-re/groundwork/internal/ownership"
)

// TreeResolver expands the ownership graph below a root entity.
type TreeResolver interface {
	SubsidiaryTree(ctx context.Context, rootID int64) (*ownership.Node, []string, error)
}

// BalanceSource reads each member's chart of accounts with balances.
type BalanceSource interface {
	GetAccounts(ctx context.Context, entityID int64, opts ledger.ListOptions) ([]ledger.Account, error)
}

// PendingSource lists transactions still awaiting elimination.
type PendingSource interface {
	ListPending(ctx context.Context, entityIDs []int64) ([]interco.Transaction, error)
}

// Service rolls member trial balances up into one consolidated view. Member
// balances are scaled by effective ownership; a member whose ledger cannot be
// read is excluded with a warning rather than failing the whole run.
type Service struct {
	resolver TreeResolver
	balances BalanceSource
	pending  PendingSource
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(resolver TreeResolver, balances BalanceSource, pending PendingSource, logger *slog.Logger) *Service {
	return &Service{
		resolver: resolver,
		balances: balances,
		pending:  pending,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// ConsolidatedOwnership returns the resolved subsidiary tree for the root.
func (s *Service) ConsolidatedOwnership(ctx context.Context, rootID int64) (*ownership.Node, []string, error) {
	return s.resolver.SubsidiaryTree(ctx, rootID)
}

// ConsolidationGroup flattens the subsidiary tree to one row per entity.
func (s *Service) ConsolidationGroup(ctx context.Context, rootID int64) ([]ownership.GroupMember, []string, error) {
	tree, warnings, err := s.resolver.SubsidiaryTree(ctx, rootID)
	if err != nil {
		return nil, warnings, err
	}
	return ownership.FlattenGroup(tree), warnings, nil
}

// ConsolidatedTrialBalance merges every member's balances keyed by account
// number, scaling each contribution by the member's effective ownership.
// Totals stay gross; pending intercompany transactions are attached for
// review when requested but never netted out.
func (s *Service) ConsolidatedTrialBalance(ctx context.Context, rootID int64, opts Options) (TrialBalance, error) {
	tree, warnings, err := s.resolver.SubsidiaryTree(ctx, rootID)
	if err != nil {
		return TrialBalance{}, err
	}
	members := ownership.FlattenGroup(tree)

	tb := TrialBalance{
		RootID:      rootID,
		RootName:    tree.Name,
		GeneratedAt: s.now(),
		Members:     members,
		Warnings:    warnings,
	}

	merged := make(map[string]*Account)
	includedIDs := make([]int64, 0, len(members))
	for _, member := range members {
		accounts, err := s.balances.GetAccounts(ctx, member.EntityID, ledger.ListOptions{ActiveOnly: true})
		if err != nil {
			tb.Warnings = append(tb.Warnings, fmt.Sprintf("entity %d (%s) excluded: %v", member.EntityID, member.Name, err))
			tb.ExcludedEntities = append(tb.ExcludedEntities, member.EntityID)
			continue
		}
		includedIDs = append(includedIDs, member.EntityID)
		share := member.EffectiveOwnership / 100
		for _, a := range accounts {
			if a.IsHeader {
				continue
			}
			line, ok := merged[a.Number]
			if !ok {
				line = &Account{Number: a.Number, Name: a.Name, Type: a.Type}
				merged[a.Number] = line
			}
			scaled := a.Balance * share
			line.TotalBalance += scaled
			line.Contributions = append(line.Contributions, Contribution{
				EntityID:      member.EntityID,
				EntityName:    member.Name,
				RawBalance:    a.Balance,
				OwnershipPct:  member.EffectiveOwnership,
				ScaledBalance: scaled,
			})
		}
	}

	tb.Accounts = make([]Account, 0, len(merged))
	for _, line := range merged {
		sort.Slice(line.Contributions, func(i, j int) bool {
			return line.Contributions[i].EntityID < line.Contributions[j].EntityID
		})
		tb.Accounts = append(tb.Accounts, *line)
	}
	sort.Slice(tb.Accounts, func(i, j int) bool { return tb.Accounts[i].Number < tb.Accounts[j].Number })

	for _, line := range tb.Accounts {
		if line.Type.IsDebitNature() {
			tb.TotalDebits += line.TotalBalance
		} else {
			tb.TotalCredits += line.TotalBalance
		}
	}

	if opts.IncludeEliminations && s.pending != nil && len(includedIDs) > 0 {
		pending, err := s.pending.ListPending(ctx, includedIDs)
		if err != nil {
			return TrialBalance{}, err
		}
		tb.PendingEliminations = pending
		for _, tx := range pending {
			tb.PendingEliminationTotal += math.Abs(tx.Amount)
		}
	}

	s.log().Info("consolidated trial balance built",
		slog.Int64("root_id", rootID),
		slog.Int("members", len(members)),
		slog.Int("excluded", len(tb.ExcludedEntities)),
		slog.Int("accounts", len(tb.Accounts)))
	return tb, nil
}

// ConsolidatedSummary projects the consolidated trial balance into headline
// figures. It performs no additional reads beyond the trial balance itself.
func (s *Service) ConsolidatedSummary(ctx context.Context, rootID int64) (Summary, error) {
	tb, err := s.ConsolidatedTrialBalance(ctx, rootID, Options{IncludeEliminations: true})
	if err != nil {
		return Summary{}, err
	}
	return summarize(tb), nil
}

func summarize(tb TrialBalance) Summary {
	sum := Summary{
		RootID:                  tb.RootID,
		RootName:                tb.RootName,
		GeneratedAt:             tb.GeneratedAt,
		EntityCount:             len(tb.Members) - len(tb.ExcludedEntities),
		PendingEliminations:     len(tb.PendingEliminations),
		PendingEliminationTotal: tb.PendingEliminationTotal,
	}
	for _, line := range tb.Accounts {
		switch line.Type {
		case ledger.AccountTypeAsset:
			sum.Assets += line.TotalBalance
		case ledger.AccountTypeLiability:
			sum.Liabilities += line.TotalBalance
		case ledger.AccountTypeEquity:
			sum.Equity += line.TotalBalance
		case ledger.AccountTypeRevenue, ledger.AccountTypeOtherIncome:
			sum.Revenue += line.TotalBalance
		case ledger.AccountTypeCOGS, ledger.AccountTypeExpense, ledger.AccountTypeOtherExpense:
			sum.Expenses += line.TotalBalance
		}
	}
	sum.NetIncome = sum.Revenue - sum.Expenses
	sum.NetWorth = sum.Assets - sum.Liabilities
	return sum
}

func (s *Service) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger.With(slog.String("component", "consolidation"))
	}
	return slog.Default().With(slog.String("component", "consolidation"))
}
