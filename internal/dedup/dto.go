package dedup

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// ScanRequest asks for a pairwise duplicate scan between two entities.
type ScanRequest struct {
	EntityAID int64   `json:"entity_a_id" validate:"required,gt=0"`
	EntityBID int64   `json:"entity_b_id" validate:"required,gt=0,nefield=EntityAID"`
	Threshold float64 `json:"threshold" validate:"omitempty,gt=0,lte=1"`
}

// Validate checks field-level constraints.
func (r ScanRequest) Validate() error {
	return validate.Struct(r)
}

// CreateAlertRequest records a scan finding for review.
type CreateAlertRequest struct {
	EntityAID  int64   `json:"entity_a_id" validate:"required,gt=0"`
	EntityBID  int64   `json:"entity_b_id" validate:"required,gt=0"`
	AccountAID int64   `json:"account_a_id" validate:"required,gt=0"`
	AccountBID int64   `json:"account_b_id" validate:"required,gt=0,nefield=AccountAID"`
	MatchType  string  `json:"match_type" validate:"required,oneof=exact_number exact_match similar_name"`
	Confidence float64 `json:"confidence" validate:"required,gt=0,lte=1"`
}

// Validate checks field-level constraints.
func (r CreateAlertRequest) Validate() error {
	return validate.Struct(r)
}

func (r CreateAlertRequest) toCandidate() Candidate {
	return Candidate{
		EntityAID:  r.EntityAID,
		EntityBID:  r.EntityBID,
		AccountAID: r.AccountAID,
		AccountBID: r.AccountBID,
		MatchType:  MatchType(r.MatchType),
		Confidence: r.Confidence,
	}
}

// ReviewRequest carries the reviewer decision context.
type ReviewRequest struct {
	Reviewer string `json:"reviewer" validate:"required"`
	Notes    string `json:"notes"`
}

// Validate checks field-level constraints.
func (r ReviewRequest) Validate() error {
	return validate.Struct(r)
}
