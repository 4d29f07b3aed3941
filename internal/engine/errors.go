package engine

import "fmt"

// InputError marks a request that can never succeed as given: an unknown
// satellite name or observer coordinates outside their physical range.
// Service layers map it to a client error rather than a server fault.
type InputError struct {
	Field string // offending parameter, empty when the request as a whole is bad
	Msg   string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func inputErrf(field, format string, args ...any) *InputError {
	return &InputError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
