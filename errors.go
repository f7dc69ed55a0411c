package migrationbot

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRecordNotFound means no checklist record matches the given
	// subject key or message reference.
	ErrRecordNotFound = errors.New("checklist record not found")

	// ErrRecordExists means a record already exists for the subject key.
	ErrRecordExists = errors.New("checklist record already exists")

	// ErrMessageRefSet means the record is already bound to a different
	// Slack message; the reference is write-once.
	ErrMessageRefSet = errors.New("message reference already set")
)

// ValidationError reports missing or malformed input. It is returned
// before any store mutation happens.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Fields, ", ")
}

// RemoteError wraps a failure reported by the chat platform.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("slack %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
