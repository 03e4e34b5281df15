package lookup

import (
	"errors"
	"fmt"

	"addresslookup/internal/addresslookup/models"
)

// Error normalises a failed lookup. Reason separates transport problems from
// responses the API itself reported as failures.
type Error struct {
	Reason     models.FailureReason
	Status     int
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("postcode lookup [%s]: %s", e.Reason, e.Message)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func newError(reason models.FailureReason, status int, message string, underlying error) *Error {
	return &Error{Reason: reason, Status: status, Message: message, Underlying: underlying}
}

// ReasonOf extracts the failure reason from an error, defaulting to transport.
func ReasonOf(err error) models.FailureReason {
	var le *Error
	if errors.As(err, &le) {
		return le.Reason
	}
	return models.FailureTransport
}
