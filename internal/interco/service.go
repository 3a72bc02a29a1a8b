package interco

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groundwork-re/groundwork/internal/entity"
	"github.com/groundwork-re/groundwork/internal/ownership"
	"github.com/groundwork-re/groundwork/internal/shared"
)

// TreeResolver resolves the consolidation scope for elimination generation.
type TreeResolver interface {
	SubsidiaryTree(ctx context.Context, rootID int64) (*ownership.Node, []string, error)
}

// EntityDirectory supplies entity names for counterparty guessing and memos.
type EntityDirectory interface {
	List(ctx context.Context, filters entity.ListFilters) ([]entity.Entity, int, error)
}

// Service classifies intercompany transactions and drafts elimination
// templates. Flagging and elimination are explicit user actions; auto-detect
// only ever suggests.
type Service struct {
	repo     Repository
	entities EntityDirectory
	resolver TreeResolver
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, entities EntityDirectory, resolver TreeResolver, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		entities: entities,
		resolver: resolver,
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

// Detect returns flagged transactions for the given entities within the
// optional date window.
func (s *Service) Detect(ctx context.Context, entityIDs []int64, rng DateRange) ([]Transaction, error) {
	if len(entityIDs) == 0 {
		return nil, fmt.Errorf("at least one entity id is required")
	}
	if rng.Start != nil && rng.End != nil && rng.End.Before(*rng.Start) {
		return nil, fmt.Errorf("date range end precedes start")
	}
	return s.repo.List(ctx, entityIDs, rng, true)
}

// Flag marks one entry as an intercompany transaction pending elimination.
// Eliminated entries cannot be re-flagged.
func (s *Service) Flag(ctx context.Context, entryID, counterpartyID int64) (Transaction, error) {
	if counterpartyID <= 0 {
		return Transaction{}, fmt.Errorf("counterparty entity id is required")
	}
	existing, err := s.repo.Get(ctx, entryID)
	if err != nil {
		return Transaction{}, err
	}
	if existing.EntityID == counterpartyID {
		return Transaction{}, fmt.Errorf("entry %d cannot name its own entity as counterparty", entryID)
	}
	if existing.Status == StatusEliminated {
		return Transaction{}, shared.ErrInvalidStateTransition
	}
	flagged, err := s.repo.Flag(ctx, entryID, counterpartyID, s.now())
	if err != nil {
		return Transaction{}, err
	}
	s.log().Info("entry flagged intercompany",
		slog.Int64("entry_id", entryID),
		slog.Int64("entity_id", flagged.EntityID),
		slog.Int64("counterparty_id", counterpartyID))
	return flagged, nil
}

// MarkEliminated moves pending transactions to eliminated and reports how
// many rows actually transitioned. Entries in any other state are left alone.
func (s *Service) MarkEliminated(ctx context.Context, entryIDs []int64) (int, error) {
	if len(entryIDs) == 0 {
		return 0, nil
	}
	updated, err := s.repo.MarkEliminated(ctx, entryIDs, s.now())
	if err != nil {
		return 0, err
	}
	s.log().Info("transactions eliminated",
		slog.Int("requested", len(entryIDs)),
		slog.Int("updated", updated))
	return updated, nil
}

// AutoDetect scans unflagged entries for intercompany wording and returns
// suggestions. Matched entries get the suggested marker but keep an empty
// status; a reviewer must still call Flag.
func (s *Service) AutoDetect(ctx context.Context, entityIDs []int64) ([]Suggestion, error) {
	if len(entityIDs) == 0 {
		return nil, fmt.Errorf("at least one entity id is required")
	}
	entries, err := s.repo.List(ctx, entityIDs, DateRange{}, false)
	if err != nil {
		return nil, err
	}
	names, err := s.entityNames(ctx)
	if err != nil {
		return nil, err
	}

	var suggestions []Suggestion
	for _, e := range entries {
		if e.Flagged() {
			continue
		}
		pattern, ok := matchPattern(e.Description)
		if !ok {
			continue
		}
		if err := s.repo.Suggest(ctx, e.ID); err != nil {
			return nil, err
		}
		e.Suggested = true
		suggestions = append(suggestions, Suggestion{
			Transaction:         e,
			Pattern:             pattern,
			GuessedCounterparty: guessCounterparty(e, names),
		})
	}
	s.log().Info("auto-detect finished",
		slog.Int("entities", len(entityIDs)),
		slog.Int("suggestions", len(suggestions)))
	return suggestions, nil
}

// GenerateEliminationEntries drafts one balanced template per pending
// transaction inside the root's consolidation group. Transactions whose
// counterparty falls outside the group are skipped with a warning; the drafts
// never mutate transaction status.
func (s *Service) GenerateEliminationEntries(ctx context.Context, rootID int64, asOf *time.Time) ([]EliminationEntry, []string, error) {
	tree, warnings, err := s.resolver.SubsidiaryTree(ctx, rootID)
	if err != nil {
		return nil, nil, err
	}
	members := ownership.FlattenGroup(tree)
	memberIDs := make([]int64, 0, len(members))
	memberSet := make(map[int64]struct{}, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.EntityID)
		memberSet[m.EntityID] = struct{}{}
	}

	pending, err := s.repo.ListPending(ctx, memberIDs)
	if err != nil {
		return nil, nil, err
	}
	names, err := s.entityNames(ctx)
	if err != nil {
		return nil, nil, err
	}

	at := s.now()
	if asOf != nil {
		at = *asOf
	}
	var drafts []EliminationEntry
	for _, tx := range pending {
		if asOf != nil && tx.Date.After(*asOf) {
			continue
		}
		if _, ok := memberSet[tx.CounterpartyEntityID]; !ok {
			warnings = append(warnings, fmt.Sprintf("entry %d: counterparty entity %d is outside the consolidation group", tx.ID, tx.CounterpartyEntityID))
			continue
		}
		amount := round2(math.Abs(tx.Amount))
		if amount == 0 {
			continue
		}
		receivableID, payableID := tx.EntityID, tx.CounterpartyEntityID
		if tx.Amount < 0 {
			receivableID, payableID = payableID, receivableID
		}
		drafts = append(drafts, EliminationEntry{
			Reference:     uuid.NewString(),
			TransactionID: tx.ID,
			Amount:        amount,
			AsOf:          at,
			Lines: []EliminationLine{
				{
					EntityID: payableID,
					Debit:    amount,
					Memo:     fmt.Sprintf("eliminate payable %s -> %s", names[payableID], names[receivableID]),
				},
				{
					EntityID: receivableID,
					Credit:   amount,
					Memo:     fmt.Sprintf("eliminate receivable %s -> %s", names[receivableID], names[payableID]),
				},
			},
		})
	}
	s.log().Info("elimination templates drafted",
		slog.Int64("root_id", rootID),
		slog.Int("pending", len(pending)),
		slog.Int("drafts", len(drafts)))
	return drafts, warnings, nil
}

func (s *Service) entityNames(ctx context.Context) (map[int64]string, error) {
	all, _, err := s.entities.List(ctx, entity.ListFilters{})
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(all))
	for _, e := range all {
		names[e.ID] = e.Name
	}
	return names, nil
}

// guessCounterparty looks for a known entity name inside the description.
// Ambiguous or absent mentions yield no guess.
func guessCounterparty(tx Transaction, names map[int64]string) int64 {
	desc := strings.ToLower(tx.Description)
	var found int64
	for id, name := range names {
		if id == tx.EntityID || name == "" {
			continue
		}
		if strings.Contains(desc, strings.ToLower(name)) {
			if found != 0 {
				return 0
			}
			found = id
		}
	}
	return found
}

func (s *Service) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger.With(slog.String("component", "interco"))
	}
	return slog.Default().With(slog.String("component", "interco"))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
