package processor

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to the command. Typed errors unwrap to one of these.
var (
	ErrInputNotFound   = errors.New("input not found")
	ErrParse           = errors.New("parse error")
	ErrGeometry        = errors.New("geometry error")
	ErrOutOfMemory     = errors.New("out of memory")
	ErrMissingProperty = errors.New("missing required property")
)

// ParseError reports malformed GeoJSON with as much position as is known.
// Line and Column are 1-based and zero when unknown. Feature is -1 outside
// the features array.
type ParseError struct {
	Path    string
	Offset  int64
	Line    int
	Column  int
	Feature int
	Err     error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse %s", e.Path)
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d column %d", e.Line, e.Column)
	} else if e.Offset > 0 {
		msg += fmt.Sprintf(" at byte %d", e.Offset)
	}
	if e.Feature >= 0 {
		msg += fmt.Sprintf(" (feature %d)", e.Feature)
	}
	return msg + ": " + e.Err.Error()
}

// Unwrap exposes ErrParse and the underlying cause.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// GeometryError reports a feature whose geometry cannot be merged.
type GeometryError struct {
	Feature int // index in the input features array
	ID      any
	Reason  string
}

func (e *GeometryError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("feature %d (id %v): %s", e.Feature, e.ID, e.Reason)
	}
	return fmt.Sprintf("feature %d: %s", e.Feature, e.Reason)
}

// Unwrap exposes ErrGeometry.
func (e *GeometryError) Unwrap() error {
	return ErrGeometry
}
