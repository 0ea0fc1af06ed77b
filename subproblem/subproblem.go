// Package subproblem provides a block-local view over a full n-unknown
// residual system: given one block.Block, it knows how to project the
// full unknowns vector down to the block's k unknowns, expand a
// block-local solution back into the full vector, and build the
// block-scoped objective.Objective variants the solve package's adapters
// drive. Its three Solve* methods are the external API spec.md §6 and
// SPEC_FULL.md §7 name (solve_gauss_newton / solve_lbfgs /
// solve_simulated_annealing in the original).
package subproblem

import (
	"github.com/blocksolve/blocksolve/block"
	"github.com/blocksolve/blocksolve/bserr"
	"github.com/blocksolve/blocksolve/objective"
	"github.com/blocksolve/blocksolve/residual"
	"github.com/blocksolve/blocksolve/scale"
	"github.com/blocksolve/blocksolve/solve"
	"gonum.org/v1/gonum/mat"
)

// SubProblem is the block-scoped view over a residual.Bundle used by the
// solve package. Unlike the bundle's full n functions, a SubProblem's
// objective only evaluates the block's own k equations, but those
// equations still receive the full current n-vector of unknowns: earlier
// (already-solved) blocks contribute fixed values, and columns outside
// the block are structurally absent from its Jacobian by construction of
// the decomposition.
//
// A SubProblem carries two objective.Objective views over the same
// block-local residual bundle: vectorObj (Identity + VectorAggregator)
// for Gauss-Newton's normal equations, and scalarObj (UnscaledL2 +
// SumAggregator) for L-BFGS and simulated annealing's scalar cost. Both
// are built once at construction and share the same scaler.
type SubProblem[G any] struct {
	blk    block.Block
	bundle residual.Bundle[G]
	givens G

	full []float64 // current full n-vector; blk.Unknowns entries are updated in place

	vectorObj *objective.Objective[G]
	scalarObj *objective.Objective[G]
}

// blockFuncs adapts the block's own equations (by full-system index) into
// a residual.Bundle[G] over a length-k local vector, by closing over the
// SubProblem's full vector and overwriting only the block's own entries.
func (s *SubProblem[G]) blockFuncs() []residual.Func[G] {
	fns := make([]residual.Func[G], s.blk.Len())
	for i, eq := range s.blk.Equations {
		eq := eq
		fns[i] = func(givens G, xk []float64) float64 {
			full := s.Expand(xk)
			return s.bundle.EvaluateOne(eq, givens, full)
		}
	}
	return fns
}

// New builds a SubProblem for block blk over bundle, given the current
// full-vector iterate full (length n) and givens. scaler, if non-nil,
// must have length blk.Len() and scales only this block's own unknowns.
func New[G any](bundle residual.Bundle[G], blk block.Block, givens G, full []float64, scaler *scale.Vector) (*SubProblem[G], error) {
	if len(full) != bundle.Len() {
		return nil, bserr.New(bserr.SubproblemShapeMismatch,
			"subproblem: full vector has length %d, want %d", len(full), bundle.Len())
	}
	if scaler != nil && scaler.Len() != blk.Len() {
		return nil, bserr.New(bserr.SubproblemShapeMismatch,
			"subproblem: scaler has length %d, want block length %d", scaler.Len(), blk.Len())
	}

	fullCopy := make([]float64, len(full))
	copy(fullCopy, full)

	s := &SubProblem[G]{blk: blk, bundle: bundle, givens: givens, full: fullCopy}
	localBundle := residual.NewBundle(s.blockFuncs(), namesFor(bundle, blk))
	s.vectorObj = objective.New[G](localBundle, givens, scaler, objective.Identity{}, objective.VectorAggregator{})
	s.scalarObj = objective.New[G](localBundle, givens, scaler, objective.UnscaledL2{}, objective.SumAggregator{})
	return s, nil
}

func namesFor[G any](bundle residual.Bundle[G], blk block.Block) []string {
	names := make([]string, blk.Len())
	for i, eq := range blk.Equations {
		names[i] = bundle.Name(eq)
	}
	return names
}

// InitialOpt returns the block's current unknowns, in block-local order,
// as model-space values (the caller applies a Scaler's Inverse if solving
// in opt space).
func (s *SubProblem[G]) InitialOpt() []float64 {
	xk := make([]float64, s.blk.Len())
	for i, u := range s.blk.Unknowns {
		xk[i] = s.full[u]
	}
	return xk
}

// Expand writes a block-local k-vector into the block's positions of a
// fresh copy of the full n-vector, leaving every other entry as it was at
// construction time (or after the last Apply), and returns that copy.
func (s *SubProblem[G]) Expand(xk []float64) []float64 {
	full := make([]float64, len(s.full))
	copy(full, s.full)
	for i, u := range s.blk.Unknowns {
		full[u] = xk[i]
	}
	return full
}

// Apply commits a block-local solution xk into the SubProblem's full
// vector, so that subsequent blocks see it as a fixed input.
func (s *SubProblem[G]) Apply(xk []float64) error {
	if len(xk) != s.blk.Len() {
		return bserr.New(bserr.SubproblemShapeMismatch,
			"subproblem: Apply got length %d, want %d", len(xk), s.blk.Len())
	}
	for i, u := range s.blk.Unknowns {
		s.full[u] = xk[i]
	}
	return nil
}

// Len returns k, the block's dimension.
func (s *SubProblem[G]) Len() int { return s.blk.Len() }

// Block returns the block.Block this SubProblem is scoped to.
func (s *SubProblem[G]) Block() block.Block { return s.blk }

// Cost returns the scalar (UnscaledL2/Sum) objective's cost at block-local
// point xk, for solvers that optimize a scalar (L-BFGS, simulated
// annealing).
func (s *SubProblem[G]) Cost(xk []float64) float64 { return s.scalarObj.Cost(xk) }

// Gradient returns the gradient of the scalar cost at xk.
func (s *SubProblem[G]) Gradient(xk []float64) []float64 { return s.scalarObj.Gradient(xk) }

// Residuals returns the raw (Identity/Vector) block-local residual vector
// at xk, for Gauss-Newton's normal equations.
func (s *SubProblem[G]) Residuals(dst, xk []float64) error { return s.vectorObj.Residuals(dst, xk) }

// Jacobian returns the Jacobian of the raw block-local residual vector at
// xk.
func (s *SubProblem[G]) Jacobian(xk []float64) *mat.Dense { return s.vectorObj.Jacobian(xk) }

// SolveGaussNewton runs solve.GaussNewton over this SubProblem's raw
// residual vector, starting from the block's current unknowns, and
// commits the result via Apply on success.
func (s *SubProblem[G]) SolveGaussNewton(settings solve.GaussNewtonSettings) ([]float64, error) {
	xk, err := solve.GaussNewton(s, s.InitialOpt(), settings)
	if err != nil {
		return nil, err
	}
	if err := s.Apply(xk); err != nil {
		return nil, err
	}
	return xk, nil
}

// SolveLBFGS runs solve.LBFGS over this SubProblem's scalar cost, starting
// from the block's current unknowns, and commits the result via Apply on
// success.
func (s *SubProblem[G]) SolveLBFGS(settings solve.LBFGSSettings) ([]float64, error) {
	xk, err := solve.LBFGS(s, s.InitialOpt(), settings)
	if err != nil {
		return nil, err
	}
	if err := s.Apply(xk); err != nil {
		return nil, err
	}
	return xk, nil
}

// SolveSimulatedAnnealing runs solve.SimulatedAnneal over this
// SubProblem's scalar cost, starting from the block's current unknowns,
// and commits the result via Apply (annealing always succeeds once it
// starts, so Apply is unconditional here).
func (s *SubProblem[G]) SolveSimulatedAnnealing(settings solve.SimulatedAnnealSettings) ([]float64, error) {
	xk, err := solve.SimulatedAnneal(s, s.InitialOpt(), settings)
	if err != nil {
		return nil, err
	}
	if err := s.Apply(xk); err != nil {
		return nil, err
	}
	return xk, nil
}
