package models

// ErrorCode is a user-facing validation failure shown on the current phase.
type ErrorCode string

const (
	ErrorRequired            ErrorCode = "required"
	ErrorFormat              ErrorCode = "format"
	ErrorCountry             ErrorCode = "country"
	ErrorSelectionOutOfRange ErrorCode = "selection_out_of_range"
)

// FieldErrors maps a form field name to its error.
type FieldErrors map[string]ErrorCode

func (e FieldErrors) Empty() bool {
	return len(e) == 0
}
