package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

// ExecError reports a statement the engine rejected or failed to run. The
// shell prints it inline with an "ERROR:" prefix and keeps going.
type ExecError struct {
	Err error
}

func (e *ExecError) Error() string { return e.Err.Error() }
func (e *ExecError) Unwrap() error { return e.Err }

func execError(err error, msg string) error {
	return &ExecError{Err: errors.Wrap(err, msg)}
}

// LookupError reports a keyspace or table that does not exist.
type LookupError struct {
	Kind string // "keyspace" or "table"
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %q does not exist", e.Kind, e.Name)
}

// StateError reports an operation that needs state the session does not
// have, e.g. an unqualified table name with no current keyspace.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// ErrNoKeyspace is the StateError for operations requiring a current
// keyspace when none has been selected.
func ErrNoKeyspace() error {
	return &StateError{Msg: "no keyspace selected (use USE <keyspace> or a qualified name)"}
}
