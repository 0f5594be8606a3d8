package backend

import "github.com/cockroachdb/errors"

// Failure classifies an error by how the render loop must react to it.
type Failure int

const (
	// FailureNone is the kind of a nil error.
	FailureNone Failure = iota
	// FailureInit aborts startup of a backend. The selector may try another one.
	FailureInit
	// FailureRuntime sets the close flag. Teardown still runs.
	FailureRuntime
	// FailureTransient means the presentable surface is stale and must be rebuilt.
	FailureTransient
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureInit:
		return "fatal-init"
	case FailureRuntime:
		return "fatal-runtime"
	case FailureTransient:
		return "transient"
	}
	return "unknown"
}

// Markers for the failure taxonomy. Errors are tagged with errors.Mark and
// classified with errors.Is, so the marks survive wrapping.
var (
	ErrInit      = errors.New("backend initialization failed")
	ErrRuntime   = errors.New("backend runtime failure")
	ErrTransient = errors.New("surface out of date")
)

// InitFailure tags err as fatal to backend startup.
func InitFailure(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrInit)
}

// RuntimeFailure tags err as fatal to the render loop.
func RuntimeFailure(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrRuntime)
}

// TransientFailure tags err as recoverable by rebuilding the surface.
func TransientFailure(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrTransient)
}

// KindOf reports the failure kind of err. Unmarked errors are treated as
// runtime failures: nothing is silently downgraded.
func KindOf(err error) Failure {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrInit):
		return FailureInit
	case errors.Is(err, ErrTransient):
		return FailureTransient
	default:
		return FailureRuntime
	}
}
