package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/groundwork-re/groundwork/internal/ledger"
	"github.com/groundwork-re/groundwork/internal/ownership"
	"github.com/groundwork-re/groundwork/internal/shared"
)

// AccountSource reads the active chart of accounts for one entity.
type AccountSource interface {
	GetAccounts(ctx context.Context, entityID int64, opts ledger.ListOptions) ([]ledger.Account, error)
}

// Service runs duplicate-account scans and manages the review workflow.
type Service struct {
	accounts   AccountSource
	rels       ownership.RelationshipSource
	alerts     AlertRepository
	normalizer *Normalizer
	audit      shared.AuditRecorder
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(accounts AccountSource, rels ownership.RelationshipSource, alerts AlertRepository, normalizer *Normalizer, logger *slog.Logger) *Service {
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	return &Service{
		accounts:   accounts,
		rels:       rels,
		alerts:     alerts,
		normalizer: normalizer,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithAudit attaches an audit recorder for alert reviews.
func (s *Service) WithAudit(recorder shared.AuditRecorder) {
	s.audit = recorder
}

// DetectOptions tunes one scan.
type DetectOptions struct {
	Threshold float64
}

// DetectDuplicates compares every active account pair between two entities.
// Pairs that already carry an alert are not re-proposed. The comparison is
// O(nA x nB); callers should scope it to directly related entities.
func (s *Service) DetectDuplicates(ctx context.Context, entityAID, entityBID int64, opts DetectOptions) ([]Candidate, error) {
	if entityAID == entityBID {
		return nil, fmt.Errorf("cannot scan entity %d against itself", entityAID)
	}
	matcher := NewMatcher(s.normalizer, opts.Threshold)

	accountsA, err := s.accounts.GetAccounts(ctx, entityAID, ledger.ListOptions{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	accountsB, err := s.accounts.GetAccounts(ctx, entityBID, ledger.ListOptions{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, a := range accountsA {
		for _, b := range accountsB {
			candidate, ok := matcher.Match(a, b)
			if !ok {
				continue
			}
			exists, err := s.alerts.ExistsForPair(ctx, a.ID, b.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				continue
			}
			candidates = append(candidates, candidate)
		}
	}
	s.log().Info("duplicate scan finished",
		slog.Int64("entity_a", entityAID),
		slog.Int64("entity_b", entityBID),
		slog.Int("candidates", len(candidates)))
	return candidates, nil
}

// ScanRelatedEntities scans the entity against every entity related by an
// active ownership edge in either direction.
func (s *Service) ScanRelatedEntities(ctx context.Context, entityID int64, opts DetectOptions) ([]Candidate, error) {
	edges, err := s.rels.ListByEntity(ctx, entityID, ownership.ListFilters{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	neighbors := make(map[int64]struct{})
	for _, edge := range edges {
		if edge.ParentID != entityID {
			neighbors[edge.ParentID] = struct{}{}
		}
		if edge.ChildID != entityID {
			neighbors[edge.ChildID] = struct{}{}
		}
	}

	var all []Candidate
	for neighbor := range neighbors {
		candidates, err := s.DetectDuplicates(ctx, entityID, neighbor, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, candidates...)
	}
	return all, nil
}

// CreateAlert records a candidate as a pending alert.
func (s *Service) CreateAlert(ctx context.Context, candidate Candidate) (DuplicateAlert, error) {
	if candidate.AccountAID == 0 || candidate.AccountBID == 0 {
		return DuplicateAlert{}, fmt.Errorf("candidate account ids are required")
	}
	return s.alerts.Create(ctx, DuplicateAlert{
		EntityAID:  candidate.EntityAID,
		EntityBID:  candidate.EntityBID,
		AccountAID: candidate.AccountAID,
		AccountBID: candidate.AccountBID,
		MatchType:  candidate.MatchType,
		Confidence: candidate.Confidence,
		Status:     StatusPending,
		CreatedAt:  s.now(),
	})
}

// Confirm marks a pending alert as a verified duplicate.
func (s *Service) Confirm(ctx context.Context, id int64, reviewer, notes string) (DuplicateAlert, error) {
	return s.transition(ctx, id, StatusConfirmed, reviewer, notes)
}

// Dismiss marks a pending alert as a false positive.
func (s *Service) Dismiss(ctx context.Context, id int64, reviewer, notes string) (DuplicateAlert, error) {
	return s.transition(ctx, id, StatusDismissed, reviewer, notes)
}

// MarkMerged records that the duplicate pair was merged in the ledger.
func (s *Service) MarkMerged(ctx context.Context, id int64, reviewer, notes string) (DuplicateAlert, error) {
	return s.transition(ctx, id, StatusMerged, reviewer, notes)
}

func (s *Service) transition(ctx context.Context, id int64, to AlertStatus, reviewer, notes string) (DuplicateAlert, error) {
	alert, err := s.alerts.Get(ctx, id)
	if err != nil {
		return DuplicateAlert{}, err
	}
	if err := alert.Transition(to, reviewer, notes, s.now()); err != nil {
		return DuplicateAlert{}, err
	}
	if err := s.alerts.Update(ctx, alert); err != nil {
		return DuplicateAlert{}, err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			Action:   "dedup.alert." + string(to),
			Entity:   "duplicate_alert",
			EntityID: strconv.FormatInt(id, 10),
			Meta: map[string]any{
				"reviewer": reviewer,
				"notes":    notes,
			},
			At: s.now(),
		}); err != nil {
			s.log().Warn("audit record failed", slog.Any("error", err))
		}
	}
	s.log().Info("alert transitioned",
		slog.Int64("alert_id", id),
		slog.String("status", string(to)),
		slog.String("reviewer", reviewer))
	return alert, nil
}

// ListAlerts returns recorded alerts, optionally scoped to one entity or status.
func (s *Service) ListAlerts(ctx context.Context, filters ListFilters) ([]DuplicateAlert, error) {
	return s.alerts.List(ctx, filters)
}

// GetStats aggregates alert counts by status and match type plus the average
// confidence, optionally scoped to one entity.
func (s *Service) GetStats(ctx context.Context, entityID int64) (Stats, error) {
	alerts, err := s.alerts.List(ctx, ListFilters{EntityID: entityID})
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		ByStatus:    make(map[AlertStatus]int),
		ByMatchType: make(map[MatchType]int),
	}
	var confidenceSum float64
	for _, alert := range alerts {
		stats.Total++
		stats.ByStatus[alert.Status]++
		stats.ByMatchType[alert.MatchType]++
		confidenceSum += alert.Confidence
	}
	if stats.Total > 0 {
		stats.AvgConfidence = confidenceSum / float64(stats.Total)
	}
	return stats, nil
}

func (s *Service) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger.With(slog.String("component", "dedup"))
	}
	return slog.Default().With(slog.String("component", "dedup"))
}
