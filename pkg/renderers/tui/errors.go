package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNilForm is returned when Render is called without a form.
	ErrNilForm = errors.New("tui: form is nil")
)
