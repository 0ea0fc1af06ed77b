// Package decompose computes the Dulmage-Mendelsohn lower block-triangular
// decomposition of a nonlinear system's structural Jacobian: probe the
// Jacobian sparsity at an initial guess, find a maximum bipartite matching
// between equations and unknowns, and group matched pairs into strongly
// connected components ordered dependency-first.
package decompose

import (
	"sort"

	"github.com/blocksolve/blocksolve/bserr"
	"github.com/blocksolve/blocksolve/block"
	"github.com/blocksolve/blocksolve/objective"
	"github.com/blocksolve/blocksolve/residual"
	"gonum.org/v1/gonum/mat"
)

// denseAdapter exposes a binarized *mat.Dense through the matrixLike
// interface used by maximumBipartiteMatching and the SCC edge predicate.
type denseAdapter struct {
	bin *mat.Dense
}

func (d denseAdapter) Present(i, j int) bool { return present(d.bin, i, j) }

// Probe evaluates the structural Jacobian of bundle at x0 (via finite
// differences, see SPEC_FULL.md §10) and binarizes it.
func Probe[G any](bundle residual.Bundle[G], givens G, x0 []float64) (*mat.Dense, error) {
	n := bundle.Len()
	if len(x0) != n {
		return nil, bserr.New(bserr.DimensionMismatch,
			"decompose: x0 has length %d, want %d", len(x0), n)
	}
	obj := objective.New[G](bundle, givens, nil, objective.Identity{}, objective.VectorAggregator{})
	jac := obj.Jacobian(x0)
	return Binarize(jac), nil
}

// Build runs the full structural decomposition pipeline: probe, match,
// find strongly connected components, and emit a dependency-ordered Plan
// with original (pre-permutation) equation/unknown indices.
func Build[G any](bundle residual.Bundle[G], givens G, x0 []float64) (block.Plan, error) {
	bin, err := Probe(bundle, givens, x0)
	if err != nil {
		return block.Plan{}, err
	}
	n := bundle.Len()
	adapter := denseAdapter{bin: bin}

	matchCol, err := maximumBipartiteMatching(adapter, n)
	if err != nil {
		return block.Plan{}, err
	}

	// matchRow[col] = row matched to that column (inverse of matchCol).
	matchRow := make([]int, n)
	for row, col := range matchCol {
		matchRow[col] = row
	}

	// Dependency graph over columns (one node per matched pair, identified
	// by its column index): edge col(u) -> col(v) iff the row matched to
	// column u has a dependency on column v, v != u.
	hasEdge := func(u, v int) bool {
		if u == v {
			return false
		}
		row := matchRow[u]
		return adapter.Present(row, v)
	}
	components := tarjanSCC(n, hasEdge)

	plan := block.Plan{Blocks: make([]block.Block, 0, len(components))}
	for idx, comp := range components {
		sort.Ints(comp)
		equations := make([]int, len(comp))
		unknowns := make([]int, len(comp))
		for i, col := range comp {
			unknowns[i] = col
			equations[i] = matchRow[col]
		}
		sort.Ints(equations)
		plan.Blocks = append(plan.Blocks, block.Block{
			Index:     idx,
			Equations: equations,
			Unknowns:  unknowns,
		})
	}
	return plan, nil
}
