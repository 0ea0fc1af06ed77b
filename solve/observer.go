// Package solve adapts subproblem.SubProblem (and the full-problem
// objective.Objective) to three solvers: Gauss-Newton, L-BFGS, and
// simulated annealing.
package solve

// Observer receives one notification per iteration from any solver in
// this package. It is the Go-shaped equivalent of the original's
// MyObserver/argmin Observe hook and of gonum's own optimize.Recorder:
// a pluggable diagnostic callback, never a logging dependency. The core
// solvers never print; attaching an Observer that does is the caller's
// choice.
type Observer interface {
	Observe(iteration int, cost float64)
}

// NopObserver discards every notification. It is the default when no
// Observer is supplied.
type NopObserver struct{}

func (NopObserver) Observe(iteration int, cost float64) {}
