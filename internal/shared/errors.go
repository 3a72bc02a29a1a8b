package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an unknown entity, account, relationship or alert id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidStateTransition indicates an attempt to move an alert out of a terminal status.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrSystemTemplateImmutable indicates a mutation attempt on a template-protected account.
	ErrSystemTemplateImmutable = errors.New("system template is immutable")
)

// OverallocationError reports an ownership write that would push a child's
// active inbound percentages above 100.
type OverallocationError struct {
	ChildEntityID int64
	Requested     float64
	Available     float64
}

func (e *OverallocationError) Error() string {
	return fmt.Sprintf("ownership overallocated for entity %d: requested %.4f%%, available %.4f%%", e.ChildEntityID, e.Requested, e.Available)
}

// IsOverallocation reports whether err wraps an OverallocationError.
func IsOverallocation(err error) bool {
	var target *OverallocationError
	return errors.As(err, &target)
}
