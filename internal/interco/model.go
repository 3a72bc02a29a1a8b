package interco

import "time"

// Status tracks a flagged transaction through the elimination workflow.
type Status string

const (
	StatusPendingElimination Status = "pending_elimination"
	StatusEliminated         Status = "eliminated"
)

// Transaction is one ledger entry viewed through the intercompany lens. An
// entry is flagged once a counterparty entity is attached; until then Status
// is empty. Positive amounts are receivables held by EntityID against the
// counterparty, negative amounts are payables.
type Transaction struct {
	ID                   int64      `json:"id"`
	EntityID             int64      `json:"entity_id"`
	CounterpartyEntityID int64      `json:"counterparty_entity_id,omitempty"`
	AccountID            int64      `json:"account_id"`
	Amount               float64    `json:"amount"`
	Date                 time.Time  `json:"date"`
	Description          string     `json:"description"`
	Status               Status     `json:"status,omitempty"`
	Suggested            bool       `json:"suggested,omitempty"`
	FlaggedAt            *time.Time `json:"flagged_at,omitempty"`
	EliminatedAt         *time.Time `json:"eliminated_at,omitempty"`
}

// Flagged reports whether the entry has been marked intercompany.
func (t Transaction) Flagged() bool {
	return t.Status != ""
}

// DateRange bounds a detection window. Nil ends are open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether the instant falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// Suggestion is an auto-detect finding. It names the pattern that matched and
// a counterparty guess when the description mentions a known entity. Findings
// never change the transaction status.
type Suggestion struct {
	Transaction         Transaction `json:"transaction"`
	Pattern             string      `json:"pattern"`
	GuessedCounterparty int64       `json:"guessed_counterparty,omitempty"`
}

// EliminationLine is one leg of an elimination journal template.
type EliminationLine struct {
	EntityID int64   `json:"entity_id"`
	Debit    float64 `json:"debit,omitempty"`
	Credit   float64 `json:"credit,omitempty"`
	Memo     string  `json:"memo"`
}

// EliminationEntry is a balanced two-line template draft for one pending
// transaction. The debit lands on the payable side, the credit on the
// receivable side, so posting the pair nets to zero.
type EliminationEntry struct {
	Reference     string            `json:"reference"`
	TransactionID int64             `json:"transaction_id"`
	Amount        float64           `json:"amount"`
	AsOf          time.Time         `json:"as_of"`
	Lines         []EliminationLine `json:"lines"`
}
