package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrNotFound reports an operation against an entity id that is not in
	// the scene. Outside of session load this indicates a caller bug.
	ErrNotFound = errors.New("entity not found")
)

// DuplicateConnectionError reports an attempt to create a connection
// identical in start, end, and direction to an existing one.
type DuplicateConnectionError struct {
	Start EntityID
	End   EntityID
}

func (e *DuplicateConnectionError) Error() string {
	return fmt.Sprintf("connection %s -> %s already exists", e.Start, e.End)
}

// EmptySelectionError reports a group request with fewer members than the
// configured minimum.
type EmptySelectionError struct {
	Got int
	Min int
}

func (e *EmptySelectionError) Error() string {
	return fmt.Sprintf("group requires at least %d member(s), got %d", e.Min, e.Got)
}
