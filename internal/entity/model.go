package entity

import "time"

// Purpose classifies what role a legal entity plays in the portfolio.
type Purpose string

const (
	PurposeHolding   Purpose = "HOLDING"
	PurposeOperating Purpose = "OPERATING"
	PurposeProject   Purpose = "PROJECT"
)

// Entity models a legal/organisational unit (holding company, operating
// company, or single-purpose project vehicle).
type Entity struct {
	ID          int64
	Name        string
	Purpose     Purpose
	ProjectType *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListFilters narrows entity listings.
type ListFilters struct {
	Search     string
	Purpose    Purpose
	ActiveOnly bool
	Page       int
	Limit      int
}
