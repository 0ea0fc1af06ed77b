// Package system orchestrates the full solve: for each block of a
// decomposed plan, run the Gauss-Newton -> simulated-annealing ->
// Gauss-Newton-refine waterfall, then polish the assembled full solution
// with L-BFGS.
package system

import (
	"errors"

	"github.com/blocksolve/blocksolve/block"
	"github.com/blocksolve/blocksolve/bserr"
	"github.com/blocksolve/blocksolve/objective"
	"github.com/blocksolve/blocksolve/residual"
	"github.com/blocksolve/blocksolve/solve"
	"github.com/blocksolve/blocksolve/subproblem"
)

// System binds a residual.Bundle to a decomposed block.Plan and solves it.
type System[G any] struct {
	bundle   residual.Bundle[G]
	plan     block.Plan
	Observer solve.Observer
}

// New builds a System from a residual bundle and a decomposition plan
// produced by decompose.Build.
func New[G any](bundle residual.Bundle[G], plan block.Plan) *System[G] {
	return &System[G]{bundle: bundle, plan: plan}
}

func (s *System[G]) observer() solve.Observer {
	if s.Observer == nil {
		return solve.NopObserver{}
	}
	return s.Observer
}

// Solve runs the per-block waterfall over every block of the plan in
// dependency order, then polishes the assembled full solution with
// L-BFGS. It returns the solved unknowns vector, in original-index order.
//
// Per block: Gauss-Newton first; on GaussNewtonDiverged, fall back to
// simulated annealing, then attempt a Gauss-Newton refinement of the
// annealed point. If that refinement also fails, the annealed point is
// kept rather than aborting the whole plan (see SPEC_FULL.md §5.5 /
// DESIGN.md Open Question resolutions). Any other error aborts
// immediately.
func (s *System[G]) Solve(givens G, x0 []float64) ([]float64, error) {
	if len(x0) != s.bundle.Len() {
		return nil, bserr.New(bserr.DimensionMismatch,
			"system: x0 has length %d, want %d", len(x0), s.bundle.Len())
	}

	full := make([]float64, len(x0))
	copy(full, x0)

	for _, blk := range s.plan.Blocks {
		solved, err := s.solveBlock(givens, blk, full)
		if err != nil {
			return nil, err
		}
		full = solved
	}

	return s.polish(givens, full)
}

func (s *System[G]) solveBlock(givens G, blk block.Block, full []float64) ([]float64, error) {
	sp, err := subproblem.New[G](s.bundle, blk, givens, full, nil)
	if err != nil {
		return nil, err
	}

	xk, gnErr := sp.SolveGaussNewton(solve.GaussNewtonSettings{Observer: s.observer()})
	if gnErr == nil {
		return sp.Expand(xk), nil
	}
	if !errors.Is(gnErr, bserr.GaussNewtonDiverged) {
		return nil, gnErr
	}

	saX, saErr := sp.SolveSimulatedAnnealing(solve.SimulatedAnnealSettings{Observer: s.observer()})
	if saErr != nil {
		return nil, saErr
	}

	if refined, refineErr := sp.SolveGaussNewton(solve.GaussNewtonSettings{Observer: s.observer()}); refineErr == nil {
		return sp.Expand(refined), nil
	}
	// Refinement failed; sp's full vector still holds the annealed point
	// committed by SolveSimulatedAnnealing above (SolveGaussNewton only
	// commits on success), so keep it rather than aborting the plan.
	return sp.Expand(saX), nil
}

func (s *System[G]) polish(givens G, x []float64) ([]float64, error) {
	obj := objective.New[G](s.bundle, givens, nil, objective.UnscaledL2{}, objective.SumAggregator{})
	polished, err := solve.LBFGS(obj, x, solve.LBFGSSettings{Observer: s.observer()})
	if err != nil {
		return nil, err
	}
	return polished, nil
}
