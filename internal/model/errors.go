// File path: internal/model/errors.go
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports a lookup against an id that does not exist. Item
// mutations on missing ids are deliberately no-ops; backup restore is not.
var ErrNotFound = errors.New("not found")

// ErrImportParse reports an import payload that could not be decoded or that
// carries an unsupported schema version. The current state is left untouched.
var ErrImportParse = errors.New("import parse failed")

// FieldError describes one validation failure on an item payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors aggregates every field failure found in one pass so the
// caller can report them all at once.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// InvalidStateTransition reports a mutation that would violate the item
// workflow invariants (complete before approve, edit after complete).
type InvalidStateTransition struct {
	ItemID string
	Op     string
	Reason string
}

func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid transition %s on item %s: %s", e.Op, e.ItemID, e.Reason)
}
