// Package scale implements the scaled log-link bijection between
// unconstrained optimizer space and bounded model space, used so that
// Gauss-Newton/L-BFGS/simulated annealing can operate on an unconstrained
// vector while every model-space value stays on the same side of zero as
// its prior and above a small lower bound.
package scale

import (
	"math"

	"github.com/blocksolve/blocksolve/bserr"
)

// lowerBoundFraction is the fraction of |prior| used as the lower bound
// each model-space value is pinned above.
const lowerBoundFraction = 0.01

// Scaler converts one unknown between opt space (unconstrained, used by
// the solvers) and model space (bounded, used by residual functions).
// The zero value is not usable; construct with New.
type Scaler struct {
	prior float64
	lb    float64
}

// New builds a Scaler for a single unknown given its prior (initial guess
// / reference value). It returns ZeroPrior if prior is exactly zero, since
// the link function's lower bound and sign are both derived from it.
func New(prior float64) (Scaler, error) {
	if prior == 0 {
		return Scaler{}, bserr.New(bserr.ZeroPrior, "scale: prior must be non-zero")
	}
	return Scaler{prior: prior, lb: lowerBoundFraction * math.Abs(prior)}, nil
}

// Forward maps an opt-space value x to its bounded model-space value:
//
//	forward(x) = sign(prior) * (exp(x)*(|prior|-lb) + lb)
func (s Scaler) Forward(x float64) float64 {
	sign := 1.0
	if math.Signbit(s.prior) {
		sign = -1.0
	}
	return sign * (math.Exp(x)*(math.Abs(s.prior)-s.lb) + s.lb)
}

// Inverse maps a bounded model-space value y back to opt space:
//
//	inverse(y) = ln((|y|-lb) / (|prior|-lb))
func (s Scaler) Inverse(y float64) float64 {
	return math.Log((math.Abs(y) - s.lb) / (math.Abs(s.prior) - s.lb))
}

// Prior returns the prior this Scaler was constructed from.
func (s Scaler) Prior() float64 { return s.prior }

// LowerBound returns the model-space lower bound, 1% of |prior|.
func (s Scaler) LowerBound() float64 { return s.lb }

// Vector scales a vector of unknowns element-wise, one Scaler per element.
type Vector struct {
	scalers []Scaler
}

// NewVector builds a Vector scaler from one prior per unknown.
func NewVector(priors []float64) (Vector, error) {
	scalers := make([]Scaler, len(priors))
	for i, p := range priors {
		s, err := New(p)
		if err != nil {
			return Vector{}, bserr.Wrap(bserr.ZeroPrior, err, "scale: prior[%d]", i)
		}
		scalers[i] = s
	}
	return Vector{scalers: scalers}, nil
}

// Len returns the number of scaled unknowns.
func (v Vector) Len() int { return len(v.scalers) }

// Forward maps every element of x (opt space) into dst (model space).
func (v Vector) Forward(dst, x []float64) error {
	if len(x) != len(v.scalers) || len(dst) != len(v.scalers) {
		return bserr.New(bserr.DimensionMismatch,
			"scale: Forward got len(x)=%d len(dst)=%d, want %d", len(x), len(dst), len(v.scalers))
	}
	for i, s := range v.scalers {
		dst[i] = s.Forward(x[i])
	}
	return nil
}

// Inverse maps every element of y (model space) into dst (opt space).
func (v Vector) Inverse(dst, y []float64) error {
	if len(y) != len(v.scalers) || len(dst) != len(v.scalers) {
		return bserr.New(bserr.DimensionMismatch,
			"scale: Inverse got len(y)=%d len(dst)=%d, want %d", len(y), len(dst), len(v.scalers))
	}
	for i, s := range v.scalers {
		dst[i] = s.Inverse(y[i])
	}
	return nil
}

// At returns the Scaler for unknown i.
func (v Vector) At(i int) Scaler { return v.scalers[i] }
