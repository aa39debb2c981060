// internal/errors/errors.go
package appErrors

import "fmt"

// ErrNotFound covers both "does not exist" and "exists in another team"; the
// two must be indistinguishable to callers.
type ErrNotFound struct {
	Kind string // "thread", "account", "lead", "client", "outbox entry"
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func NewNotFound(kind, id string) error {
	return &ErrNotFound{Kind: kind, ID: id}
}

// ErrValidation is a rejected input, checked before any store mutation.
type ErrValidation struct {
	Reason string
}

func (e *ErrValidation) Error() string {
	return e.Reason
}

func NewValidation(format string, args ...any) error {
	return &ErrValidation{Reason: fmt.Sprintf(format, args...)}
}

// ErrIdempotencyConflict is an enqueue rejected because the idempotency key is
// held by an entry that can no longer be resent (already failed).
type ErrIdempotencyConflict struct {
	ClientMessageID string
	Status          string
}

func (e *ErrIdempotencyConflict) Error() string {
	return fmt.Sprintf("client message id %s already used by a %s entry", e.ClientMessageID, e.Status)
}

// ErrInvalidTransition is a non-monotonic outbox status change.
type ErrInvalidTransition struct {
	From string
	To   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid outbox transition %s -> %s", e.From, e.To)
}
