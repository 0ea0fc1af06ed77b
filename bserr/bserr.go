// Package bserr defines the error taxonomy shared by every blocksolve
// package: a small closed set of failure Kinds, each wrapped in an Error
// that carries a human-readable message and, where applicable, an
// underlying cause.
package bserr

import "fmt"

// Kind identifies which of the documented failure modes an Error represents.
type Kind int

const (
	// DimensionMismatch indicates a vector or matrix did not have the
	// expected length/shape.
	DimensionMismatch Kind = iota
	// StructurallySingular indicates the Jacobian sparsity pattern has no
	// perfect bipartite matching between rows and columns.
	StructurallySingular
	// ZeroPrior indicates a scaling prior of exactly zero was supplied,
	// which the log-link scaling formula cannot invert.
	ZeroPrior
	// SubproblemShapeMismatch indicates a sub-problem view received a
	// vector whose length did not match its block's dimension.
	SubproblemShapeMismatch
	// GaussNewtonDiverged indicates the Gauss-Newton solver failed to
	// reach a step that decreased the residual norm, or encountered
	// non-finite values or a singular normal-equation system.
	GaussNewtonDiverged
	// SimulatedAnnealingFailed indicates the annealing loop could not
	// produce a finite cost at the proposed point.
	SimulatedAnnealingFailed
	// LbfgsFailed indicates the quasi-Newton polish terminated with a
	// non-success status.
	LbfgsFailed
)

func (k Kind) String() string {
	switch k {
	case DimensionMismatch:
		return "dimension mismatch"
	case StructurallySingular:
		return "structurally singular"
	case ZeroPrior:
		return "zero prior"
	case SubproblemShapeMismatch:
		return "sub-problem shape mismatch"
	case GaussNewtonDiverged:
		return "gauss-newton diverged"
	case SimulatedAnnealingFailed:
		return "simulated annealing failed"
	case LbfgsFailed:
		return "lbfgs failed"
	default:
		return "unknown error kind"
	}
}

// Error satisfies the error interface for a bare Kind, so a Kind constant
// can be passed directly as the target of errors.Is.
func (k Kind) Error() string { return k.String() }

// Error is the concrete error type returned by every blocksolve package.
// It is comparable via errors.Is against a bare Kind, and unwraps to any
// underlying cause via errors.As/errors.Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a Kind equal to e.Kind, or an *Error with
// an equal Kind, so that errors.Is(err, bserr.GaussNewtonDiverged) works
// without constructing an Error value.
func (e *Error) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind == k
	}
	if other, ok := target.(*Error); ok {
		return e.Kind == other.Kind
	}
	return false
}

// New constructs an Error of the given Kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given Kind around an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}
