package chat

import "fmt"

// FormatError reports a session document that cannot be decoded:
// missing or ill-typed fields, or a turn sequence whose timestamps run
// backwards.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid session document: %s", e.Reason)
}

// NotFoundError reports a session identifier with no record on disk.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.ID)
}
