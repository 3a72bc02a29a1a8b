package consolidation

import (
	"time"

	"github.com/groundwork-re/groundwork/internal/interco"
	"github.com/groundwork-re/groundwork/internal/ledger"
	"github.com/groundwork-re/groundwork/internal/ownership"
)

// Contribution is one entity's share of a consolidated account line.
type Contribution struct {
	EntityID      int64   `json:"entity_id"`
	EntityName    string  `json:"entity_name"`
	RawBalance    float64 `json:"raw_balance"`
	OwnershipPct  float64 `json:"ownership_pct"`
	ScaledBalance float64 `json:"scaled_balance"`
}

// Account is one merged line of the consolidated trial balance. Lines merge
// by account number across entities; the name and type come from the first
// entity that carries the number.
type Account struct {
	Number        string             `json:"number"`
	Name          string             `json:"name"`
	Type          ledger.AccountType `json:"type"`
	TotalBalance  float64            `json:"total_balance"`
	Contributions []Contribution     `json:"contributions"`
}

// Options tunes a consolidation run.
type Options struct {
	IncludeEliminations bool
}

// TrialBalance is the consolidated trial balance for one root entity. Totals
// are gross: pending eliminations are reported alongside, never subtracted.
type TrialBalance struct {
	RootID                  int64                   `json:"root_id"`
	RootName                string                  `json:"root_name"`
	GeneratedAt             time.Time               `json:"generated_at"`
	Members                 []ownership.GroupMember `json:"members"`
	Warnings                []string                `json:"warnings,omitempty"`
	ExcludedEntities        []int64                 `json:"excluded_entities,omitempty"`
	Accounts                []Account               `json:"accounts"`
	TotalDebits             float64                 `json:"total_debits"`
	TotalCredits            float64                 `json:"total_credits"`
	PendingEliminations     []interco.Transaction   `json:"pending_eliminations,omitempty"`
	PendingEliminationTotal float64                 `json:"pending_elimination_total"`
}

// Summary is a pure projection of the consolidated trial balance into the
// headline figures.
type Summary struct {
	RootID              int64     `json:"root_id"`
	RootName            string    `json:"root_name"`
	GeneratedAt         time.Time `json:"generated_at"`
	Assets              float64   `json:"assets"`
	Liabilities         float64   `json:"liabilities"`
	Equity              float64   `json:"equity"`
	Revenue             float64   `json:"revenue"`
	Expenses            float64   `json:"expenses"`
	NetIncome           float64   `json:"net_income"`
	NetWorth            float64   `json:"net_worth"`
	EntityCount         int       `json:"entity_count"`
	PendingEliminations int       `json:"pending_eliminations"`
	// PendingEliminationTotal sums the absolute flagged amounts; the count
	// alone can hide one large unposted entry.
	PendingEliminationTotal float64 `json:"pending_elimination_total"`
}
