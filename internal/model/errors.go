package model

import "fmt"

// ExtractionError is a rejected candidate record: a validation failure or a
// missing required field. It is never fatal to a run; the reconciler
// collects these into the run summary.
type ExtractionError struct {
	Fragment string `json:"fragment,omitempty"` // snippet of the source markup
	Field    string `json:"field"`              // the field that failed
	Reason   string `json:"reason"`
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.Field, e.Reason)
}

// MalformedInputError is a programming-contract violation, e.g. BuildDraw
// invoked with a required field structurally absent. Unlike ExtractionError
// it fails the run: it indicates a bug, not bad page data.
type MalformedInputError struct {
	Field string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: required field %s absent", e.Field)
}

func extractErr(raw RawDraw, field, format string, args ...any) *ExtractionError {
	return &ExtractionError{
		Fragment: raw.Fragment,
		Field:    field,
		Reason:   fmt.Sprintf(format, args...),
	}
}
