package ownership

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateRelationshipRequest is the JSON payload for recording a new edge.
type CreateRelationshipRequest struct {
	ParentEntityID int64      `json:"parent_entity_id" validate:"required,gt=0"`
	ChildEntityID  int64      `json:"child_entity_id" validate:"required,gt=0,nefield=ParentEntityID"`
	Percentage     float64    `json:"percentage" validate:"required,gt=0,lte=100"`
	Type           string     `json:"type" validate:"omitempty,oneof=ownership management"`
	EffectiveDate  *time.Time `json:"effective_date"`
	EndDate        *time.Time `json:"end_date"`
}

// Validate checks field-level constraints.
func (r CreateRelationshipRequest) Validate() error {
	return validate.Struct(r)
}

func (r CreateRelationshipRequest) toModel() Relationship {
	rel := Relationship{
		ParentID:   r.ParentEntityID,
		ChildID:    r.ChildEntityID,
		Percentage: r.Percentage,
		Type:       RelationshipType(r.Type),
		EndDate:    r.EndDate,
	}
	if r.EffectiveDate != nil {
		rel.EffectiveDate = *r.EffectiveDate
	}
	return rel
}

// UpdateRelationshipRequest adjusts percentage or dates on an existing edge.
type UpdateRelationshipRequest struct {
	Percentage    float64    `json:"percentage" validate:"required,gt=0,lte=100"`
	Type          string     `json:"type" validate:"omitempty,oneof=ownership management"`
	EffectiveDate *time.Time `json:"effective_date"`
	EndDate       *time.Time `json:"end_date"`
}

// Validate checks field-level constraints.
func (r UpdateRelationshipRequest) Validate() error {
	return validate.Struct(r)
}

func (r UpdateRelationshipRequest) toModel() Relationship {
	rel := Relationship{
		Percentage: r.Percentage,
		Type:       RelationshipType(r.Type),
		EndDate:    r.EndDate,
	}
	if r.EffectiveDate != nil {
		rel.EffectiveDate = *r.EffectiveDate
	}
	return rel
}

// EndRelationshipRequest closes an edge at the provided date.
type EndRelationshipRequest struct {
	EndDate *time.Time `json:"end_date"`
}
