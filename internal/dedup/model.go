package dedup

import (
	"time"

	"github.com/groundwork-re/groundwork/internal/shared"
)

// MatchType classifies how two accounts were matched.
type MatchType string

const (
	// MatchExactNumber means the account numbers are identical.
	MatchExactNumber MatchType = "exact_number"
	// MatchExact means both number and normalized name are identical. It
	// upgrades an exact_number finding.
	MatchExact MatchType = "exact_match"
	// MatchSimilarName means normalized-name similarity cleared the threshold.
	MatchSimilarName MatchType = "similar_name"
)

// AlertStatus is the review state of a finding. pending is the only
// non-terminal status.
type AlertStatus string

const (
	StatusPending   AlertStatus = "pending"
	StatusConfirmed AlertStatus = "confirmed"
	StatusDismissed AlertStatus = "dismissed"
	StatusMerged    AlertStatus = "merged"
)

// Candidate is a scan finding that has not been recorded as an alert yet.
type Candidate struct {
	EntityAID  int64     `json:"entity_a_id"`
	EntityBID  int64     `json:"entity_b_id"`
	AccountAID int64     `json:"account_a_id"`
	AccountBID int64     `json:"account_b_id"`
	NumberA    string    `json:"number_a"`
	NumberB    string    `json:"number_b"`
	NameA      string    `json:"name_a"`
	NameB      string    `json:"name_b"`
	MatchType  MatchType `json:"match_type"`
	Confidence float64   `json:"confidence"`
}

// DuplicateAlert is a recorded finding under review. Alerts are created by a
// scan, mutated only through status transitions, and never auto-deleted.
type DuplicateAlert struct {
	ID         int64       `json:"id"`
	EntityAID  int64       `json:"entity_a_id"`
	EntityBID  int64       `json:"entity_b_id"`
	AccountAID int64       `json:"account_a_id"`
	AccountBID int64       `json:"account_b_id"`
	MatchType  MatchType   `json:"match_type"`
	Confidence float64     `json:"confidence"`
	Status     AlertStatus `json:"status"`
	Notes      string      `json:"notes,omitempty"`
	ReviewedBy string      `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time  `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Transition moves the alert to a terminal status. Only pending alerts may
// transition; re-transitioning a terminal alert is rejected.
func (a *DuplicateAlert) Transition(to AlertStatus, reviewer, notes string, at time.Time) error {
	switch to {
	case StatusConfirmed, StatusDismissed, StatusMerged:
	default:
		return shared.ErrInvalidStateTransition
	}
	if a.Status != StatusPending {
		return shared.ErrInvalidStateTransition
	}
	a.Status = to
	a.ReviewedBy = reviewer
	a.Notes = notes
	a.ReviewedAt = &at
	return nil
}

// Stats aggregates alert counts for reporting.
type Stats struct {
	Total         int                 `json:"total"`
	ByStatus      map[AlertStatus]int `json:"by_status"`
	ByMatchType   map[MatchType]int   `json:"by_match_type"`
	AvgConfidence float64             `json:"avg_confidence"`
}

// ListFilters narrows alert listings.
type ListFilters struct {
	EntityID int64
	Status   AlertStatus
}
