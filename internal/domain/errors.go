package domain

import (
	"errors"
	"fmt"
)

// Error kinds returned by the core. Operations wrap one of these with context,
// callers test the kind with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSameAccount       = errors.New("source and destination account are the same")
	ErrRemote            = errors.New("remote call failed")
	ErrAlreadyCompleted  = errors.New("quest already completed")
	ErrNoCurrentQuest    = errors.New("no current quest")
)

// RemoteError describes a failed Backend Gateway call: a transport failure
// (StatusCode 0), a non-2xx response or an explicit failure envelope.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Unwrap lets errors.Is(err, ErrRemote) match every RemoteError.
func (e *RemoteError) Unwrap() error {
	return ErrRemote
}

// validationErr is shorthand for wrapping ErrValidation with a message.
func validationErr(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
