package form

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTenant blocks submission when the draft carries no
	// organization linkage.
	ErrMissingTenant = errors.New("form: organization context is missing, sign in again before saving")
	// ErrUnknownField is returned when editing a field the record type
	// does not declare.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrUnknownOption is returned when selecting a value that is not among
	// the field's options.
	ErrUnknownOption = errors.New("form: unknown option")
	// ErrNotPollField is returned by the poll editor operations for fields
	// of any other kind.
	ErrNotPollField = errors.New("form: not a poll options field")
	// ErrPollMinimum is returned when removing an entry would leave fewer
	// than MinPollOptions entries.
	ErrPollMinimum = fmt.Errorf("form: a poll needs at least %d options", MinPollOptions)
	// ErrPollIndex is returned for an out of range poll entry.
	ErrPollIndex = errors.New("form: poll option index out of range")
)

// MissingFieldError names the first visible required field without a value.
type MissingFieldError struct {
	Field string
	Label string
}

func (e *MissingFieldError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s is required", e.Label)
}
