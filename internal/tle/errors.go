package tle

import "fmt"

// ParseError reports a malformed element set: wrong line length, checksum
// mismatch, a non-numeric field, or a value outside its physical range.
type ParseError struct {
	Line  int    // 1 or 2 (0 when the record as a whole is malformed)
	Field string
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("tle: %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("tle: line %d field %q: %s", e.Line, e.Field, e.Msg)
}

func parseErrf(line int, field, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Field: field, Msg: fmt.Sprintf(format, args...)}
}
