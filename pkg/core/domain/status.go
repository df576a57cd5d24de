package domain

import "fmt"

// Status is the lifecycle state of a QR code.
type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusArchived Status = "archived"
	StatusDeleted  Status = "deleted"
)

// allowedTransitions lists the moves reachable through a status update.
// Deletion has its own operation and is never reached from here.
var allowedTransitions = map[Status][]Status{
	StatusActive:   {StatusPaused, StatusArchived},
	StatusPaused:   {StatusActive},
	StatusArchived: {StatusActive},
}

// ParseStatus validates a status coming from user input.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusPaused, StatusArchived, StatusDeleted:
		return st, nil
	}
	return "", NewValidationError("status", fmt.Sprintf("unknown status %q", s))
}

// Visible reports whether a scanner may be redirected through a code in this state.
func (s Status) Visible() bool {
	return s == StatusActive
}

// ValidateTransition checks a status update request against the lifecycle table.
// Setting a status to its current value is always accepted.
func ValidateTransition(from, to Status) error {
	if from == to {
		return nil
	}
	if to == StatusDeleted {
		return NewValidationError("status", "qr codes are deleted through the delete operation")
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return nil
		}
	}
	return NewValidationError("", fmt.Sprintf("cannot transition from %s to %s", from, to))
}
