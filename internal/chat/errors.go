package chat

import "errors"

// Typed outcomes surfaced to the caller that issued the operation. They are
// never propagated across the broadcast boundary.
var (
	// ErrForbidden means the requester is not the original sender. Display
	// name equality is the only proof of authorship.
	ErrForbidden = errors.New("only the original sender can modify this message")
	// ErrMessageDeleted means the target message was already soft-deleted.
	ErrMessageDeleted = errors.New("cannot modify a deleted message")
)

// ValidationError rejects a blank or oversized sender or text.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
