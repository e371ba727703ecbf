package domain

import "fmt"

var ErrNotFound = errString("not found")

type errString string

func (e errString) Error() string { return string(e) }

// ValidationError reports a request whose shape the pipeline refuses to
// compute over (negative mass, empty ingredient name, ...).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
