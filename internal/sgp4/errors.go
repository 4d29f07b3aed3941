package sgp4

import "fmt"

// FailureKind classifies a propagation failure.
type FailureKind int

const (
	// Decayed means the computed radius dropped below Earth's surface; the
	// element set no longer describes an orbiting object at the target time.
	Decayed FailureKind = iota
	// NumericalError means the model produced a non-finite or physically
	// impossible intermediate value.
	NumericalError
)

func (k FailureKind) String() string {
	switch k {
	case Decayed:
		return "decayed"
	case NumericalError:
		return "numerical error"
	default:
		return "unknown"
	}
}

// PropagationError is returned instead of a state vector whenever the model
// cannot produce a finite, above-surface result. Callers distinguish the two
// kinds via the Kind field or errors.As.
type PropagationError struct {
	Kind    FailureKind
	NoradID int
	Msg     string
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("sgp4: NORAD %d: %s: %s", e.NoradID, e.Kind, e.Msg)
}

func propErrf(kind FailureKind, noradID int, format string, args ...any) *PropagationError {
	return &PropagationError{Kind: kind, NoradID: noradID, Msg: fmt.Sprintf(format, args...)}
}
