package submit

import "fmt"

// User facing messages.
const (
	GenericRejection    = "Failed to save record"
	ConnectivityMessage = "Unable to reach the server. Check your connection and try again."
)

// RejectedError is a non-2xx answer to the save request. Message is the
// server text when it sent one.
type RejectedError struct {
	RecordType string
	Status     int
	Message    string
	Err        error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("submit: %s rejected: %s", e.RecordType, e.Message)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// StatusCode returns the backend status (0 when unknown).
func (e *RejectedError) StatusCode() int { return e.Status }

// UserMessage is the text shown to the user.
func (e *RejectedError) UserMessage() string { return e.Message }

// ConnectivityError means the save request got no answer.
type ConnectivityError struct {
	RecordType string
	Err        error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("submit: %s: %v", e.RecordType, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// UserMessage is the text shown to the user.
func (e *ConnectivityError) UserMessage() string { return ConnectivityMessage }
