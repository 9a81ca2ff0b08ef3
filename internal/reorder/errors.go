package reorder

import (
	"errors"
	"fmt"
)

var (
	ErrMaxDepth      = errors.New("exceeds maximum depth")
	ErrCycle         = errors.New("cannot move into itself or its own descendant")
	ErrInvalidTarget = errors.New("invalid drop target")
	ErrNotFound      = errors.New("item not found")
)

// RejectError describes a drop the engine refused. The tree is never modified when one is returned.
type RejectError struct {
	Reason   error
	ActiveID string
	OverID   string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("cannot move %s onto %s: %v", e.ActiveID, e.OverID, e.Reason)
}

func (e *RejectError) Unwrap() error { return e.Reason }

func reject(reason error, activeID, overID string) error {
	return &RejectError{Reason: reason, ActiveID: activeID, OverID: overID}
}

// IsRejection reports whether err is a validation rejection (as opposed to a system failure).
func IsRejection(err error) bool {
	var re *RejectError
	return errors.As(err, &re)
}
