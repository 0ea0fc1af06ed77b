// Package objective assembles a residual.Bundle, an optional scale.Vector,
// a Transform and an Aggregator into the scalar or vector objective that
// the solve package's adapters drive.
package objective

import (
	"math"

	"github.com/blocksolve/blocksolve/bserr"
	"github.com/blocksolve/blocksolve/residual"
	"github.com/blocksolve/blocksolve/scale"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Transform maps a single residual value, by equation index, before
// aggregation. The index lets ScaledL2 look up a per-equation scale while
// Identity and UnscaledL2 ignore it.
type Transform interface {
	Apply(i int, r float64) float64
}

// Identity passes each residual through unchanged. Used for Gauss-Newton,
// which needs the raw (signed) residual vector for its normal equations.
type Identity struct{}

func (Identity) Apply(i int, r float64) float64 { return r }

// UnscaledL2 squares each residual, turning the vector objective into a
// per-equation cost term without any reference-scale normalization.
type UnscaledL2 struct{}

func (UnscaledL2) Apply(i int, r float64) float64 { return r * r }

// ScaledL2 squares each residual and divides by a fixed per-equation
// scale, so that equations with naturally larger magnitudes don't
// dominate the aggregate cost.
type ScaledL2 struct {
	Scale []float64
}

func (s ScaledL2) Apply(i int, r float64) float64 {
	return (r * r) / s.Scale[i]
}

// Aggregator reduces a transformed residual vector to the value a solver
// consumes.
type Aggregator interface {
	Apply(transformed []float64) []float64
}

// VectorAggregator passes the transformed residuals through unchanged, for
// solvers (Gauss-Newton) that need the full vector.
type VectorAggregator struct{}

func (VectorAggregator) Apply(transformed []float64) []float64 { return transformed }

// SumAggregator reduces the transformed residuals to a single scalar cost,
// for solvers (L-BFGS, simulated annealing) that optimize a scalar.
type SumAggregator struct{}

func (SumAggregator) Apply(transformed []float64) []float64 {
	var sum float64
	for _, v := range transformed {
		sum += v
	}
	return []float64{sum}
}

// Objective composes a residual.Bundle with an optional scaler, a
// Transform and an Aggregator into the function a solver drives.
type Objective[G any] struct {
	bundle     residual.Bundle[G]
	givens     G
	scaler     *scale.Vector // nil if the unknowns are unscaled
	transform  Transform
	aggregator Aggregator

	scratch []float64 // residual.Bundle.Len() scratch space
}

// New builds an Objective. scaler may be nil to operate directly in model
// space (no opt-space conversion).
func New[G any](bundle residual.Bundle[G], givens G, scaler *scale.Vector, transform Transform, aggregator Aggregator) *Objective[G] {
	return &Objective[G]{
		bundle:     bundle,
		givens:     givens,
		scaler:     scaler,
		transform:  transform,
		aggregator: aggregator,
		scratch:    make([]float64, bundle.Len()),
	}
}

// modelSpace converts x (opt space if a scaler is attached, model space
// otherwise) into model-space unknowns, writing into o.scratch-sized dst.
func (o *Objective[G]) modelSpace(dst, x []float64) error {
	if o.scaler == nil {
		copy(dst, x)
		return nil
	}
	return o.scaler.Forward(dst, x)
}

// Residuals evaluates the raw (untransformed) residual vector F(x) at x,
// converting from opt space to model space first if a scaler is attached.
func (o *Objective[G]) Residuals(dst, x []float64) error {
	if len(x) != o.bundle.Len() || len(dst) != o.bundle.Len() {
		return bserr.New(bserr.DimensionMismatch,
			"objective: Residuals got len(x)=%d len(dst)=%d, want %d", len(x), len(dst), o.bundle.Len())
	}
	model := make([]float64, o.bundle.Len())
	if err := o.modelSpace(model, x); err != nil {
		return err
	}
	return o.bundle.Evaluate(dst, o.givens, model)
}

// Values returns the transformed-and-aggregated output at x: a vector of
// length n with VectorAggregator, or a length-1 slice with SumAggregator.
func (o *Objective[G]) Values(x []float64) ([]float64, error) {
	if err := o.Residuals(o.scratch, x); err != nil {
		return nil, err
	}
	transformed := make([]float64, len(o.scratch))
	for i, r := range o.scratch {
		transformed[i] = o.transform.Apply(i, r)
	}
	return o.aggregator.Apply(transformed), nil
}

// Cost returns the scalar aggregate cost at x. It panics if the
// Aggregator does not reduce to a single value; callers driving scalar
// solvers must use SumAggregator.
func (o *Objective[G]) Cost(x []float64) float64 {
	v, err := o.Values(x)
	if err != nil {
		return math.NaN()
	}
	if len(v) != 1 {
		panic("objective: Cost called with a non-scalar Aggregator")
	}
	return v[0]
}

// Gradient returns the gradient of the scalar cost at x via forward
// finite differences (the AD facility substitution, see SPEC_FULL.md §10).
func (o *Objective[G]) Gradient(x []float64) []float64 {
	return fd.Gradient(nil, o.Cost, x, nil)
}

// Jacobian returns the Jacobian of the vector-valued Values output at x
// via forward finite differences.
func (o *Objective[G]) Jacobian(x []float64) *mat.Dense {
	n := len(x)
	probe, _ := o.Values(x)
	m := len(probe)
	jac := mat.NewDense(m, n, nil)
	fd.Jacobian(jac, func(dst, x []float64) {
		v, err := o.Values(x)
		if err != nil {
			for i := range dst {
				dst[i] = math.NaN()
			}
			return
		}
		copy(dst, v)
	}, x, nil)
	return jac
}

// Len returns n, the number of unknowns/residual equations.
func (o *Objective[G]) Len() int { return o.bundle.Len() }
