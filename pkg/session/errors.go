package session

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by save operations on a manager that has been
// closed.
var ErrClosed = errors.New("session manager closed")

// UnknownVersionError reports a document whose version is newer than this
// codec supports, or not a recognized version at all.
type UnknownVersionError struct {
	Version string
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("unknown session format version %q (supported up to %s)", e.Version, FormatVersion)
}

// SchemaError reports a missing or malformed required field. The whole load
// is rejected; no partial scene is returned.
type SchemaError struct {
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session schema: field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("session schema: missing or malformed field %q", e.Field)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// ReferenceError reports a connection or group referencing an entity id that
// is not present in the document. The file is rejected wholesale.
type ReferenceError struct {
	Referrer string
	Ref      string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("session: %s references nonexistent entity %q", e.Referrer, e.Ref)
}
