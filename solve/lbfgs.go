package solve

import (
	"github.com/blocksolve/blocksolve/bserr"
	"gonum.org/v1/gonum/optimize"
)

// lbfgsHistory is the L-BFGS memory size from spec.md §4.4(b).
const lbfgsHistory = 10

// ScalarProblem is the surface solve.LBFGS needs: a scalar cost and its
// gradient at a point. objective.Objective (both block-scoped via
// subproblem.SubProblem and full-problem) satisfies this.
type ScalarProblem interface {
	Cost(x []float64) float64
	Gradient(x []float64) []float64
}

// LBFGSSettings configures solve.LBFGS.
type LBFGSSettings struct {
	// MaxIterations caps the number of major iterations. 0 means
	// unlimited (gonum's own default).
	MaxIterations int
	Observer      Observer
}

// LBFGS polishes p starting at x0 using gonum's limited-memory BFGS with
// Armijo backtracking. The zero-value optimize.Backtracking already uses
// gonum's own defaults (Armijo constant 1e-4, step decrease 0.5), which
// match spec.md §4.4(b)'s stated constants, so no field overrides are
// required (see DESIGN.md).
func LBFGS(p ScalarProblem, x0 []float64, settings LBFGSSettings) ([]float64, error) {
	obs := settings.observer()

	problem := optimize.Problem{
		Func: p.Cost,
		Grad: func(grad, x []float64) []float64 {
			g := p.Gradient(x)
			copy(grad, g)
			return grad
		},
	}

	method := &optimize.LBFGS{
		Linesearcher: &optimize.Backtracking{},
		Store:        lbfgsHistory,
	}

	optSettings := &optimize.Settings{
		MajorIterations: settings.MaxIterations,
		Recorder:        recorderAdapter{obs},
	}

	result, err := optimize.Minimize(problem, x0, optSettings, method)
	if err != nil {
		return nil, bserr.Wrap(bserr.LbfgsFailed, err, "lbfgs: optimize.Minimize failed")
	}
	return result.X, nil
}

func (s LBFGSSettings) observer() Observer {
	if s.Observer == nil {
		return NopObserver{}
	}
	return s.Observer
}

// recorderAdapter bridges solve.Observer to optimize.Recorder, so an
// Observer attached to LBFGS sees the same per-major-iteration cost
// stream as an Observer attached to GaussNewton or SimulatedAnneal.
type recorderAdapter struct {
	obs Observer
}

func (r recorderAdapter) Init() error { return nil }

func (r recorderAdapter) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op&optimize.MajorIteration != 0 {
		r.obs.Observe(stats.MajorIterations, loc.F)
	}
	return nil
}
