package ownership

import "time"

// RelationshipType distinguishes consolidating ownership edges from other
// inter-entity links. Only ownership edges participate in consolidation.
type RelationshipType string

const (
	RelationshipOwnership  RelationshipType = "ownership"
	RelationshipManagement RelationshipType = "management"
)

// Relationship is a directed, weighted, time-bounded edge from a parent
// entity to a child entity. Divested ownership is ended, never deleted, so
// the acquisition history stays intact.
type Relationship struct {
	ID            int64
	ParentID      int64
	ChildID       int64
	Percentage    float64
	Type          RelationshipType
	EffectiveDate time.Time
	EndDate       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ActiveAt reports whether the edge is in force at the given instant.
func (r Relationship) ActiveAt(t time.Time) bool {
	if r.EffectiveDate.After(t) {
		return false
	}
	return r.EndDate == nil || r.EndDate.After(t)
}

// ListFilters narrows relationship listings for one entity.
type ListFilters struct {
	AsParent   bool
	AsChild    bool
	ActiveOnly bool
}

// Node is one entity in a resolved consolidation tree. Effective ownership of
// the root is always 100; each child's is its direct percentage multiplied by
// the parent's effective percentage. Truncated marks a branch cut short by
// the cycle guard.
type Node struct {
	EntityID           int64   `json:"entity_id"`
	Name               string  `json:"name"`
	DirectOwnership    float64 `json:"direct_ownership"`
	EffectiveOwnership float64 `json:"effective_ownership"`
	Depth              int     `json:"depth"`
	Truncated          bool    `json:"truncated,omitempty"`
	Children           []*Node `json:"children,omitempty"`
}

// ChainLink is one step in an upward walk toward ultimate owners.
type ChainLink struct {
	EntityID   int64   `json:"entity_id"`
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Depth      int     `json:"depth"`
	Truncated  bool    `json:"truncated,omitempty"`
}

// GroupMember is a flattened consolidation tree row. When an entity is
// reachable through several ownership paths its effective percentages are
// summed, which is how parallel minority holdings combine economically.
type GroupMember struct {
	EntityID           int64   `json:"entity_id"`
	Name               string  `json:"name"`
	DirectOwnership    float64 `json:"direct_ownership"`
	EffectiveOwnership float64 `json:"effective_ownership"`
	Depth              int     `json:"depth"`
}
