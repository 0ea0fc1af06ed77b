package subproblem

import (
	"testing"

	"github.com/blocksolve/blocksolve/block"
	"github.com/blocksolve/blocksolve/residual"
	"github.com/blocksolve/blocksolve/solve"
	"gonum.org/v1/gonum/floats"
)

type noGivens struct{}

func chainBundle() residual.Bundle[noGivens] {
	return residual.NewBundle([]residual.Func[noGivens]{
		func(g noGivens, x []float64) float64 { return x[0] - 2 },
		func(g noGivens, x []float64) float64 { return x[1] - x[0] },
	}, []string{"eq0", "eq1"})
}

func TestInitialOptAndApply(t *testing.T) {
	bundle := chainBundle()
	blk := block.Block{Index: 1, Equations: []int{1}, Unknowns: []int{1}}
	sp, err := New[noGivens](bundle, blk, noGivens{}, []float64{2, 0}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := sp.InitialOpt(); !floats.EqualApprox(got, []float64{0}, 1e-12) {
		t.Fatalf("InitialOpt = %v, want [0]", got)
	}
	if err := sp.Apply([]float64{2}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := sp.InitialOpt(); !floats.EqualApprox(got, []float64{2}, 1e-12) {
		t.Fatalf("InitialOpt after Apply = %v, want [2]", got)
	}
}

func TestCostUsesFullVectorForOtherBlocks(t *testing.T) {
	bundle := chainBundle()
	blk := block.Block{Index: 1, Equations: []int{1}, Unknowns: []int{1}}
	// full[0] = 2 (already solved by block 0); block 1 solves eq1: x1-x0=0.
	sp, err := New[noGivens](bundle, blk, noGivens{}, []float64{2, 0}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c := sp.Cost([]float64{2}); c > 1e-12 {
		t.Errorf("Cost([2]) = %v, want ~0 (x1=x0=2)", c)
	}
	if c := sp.Cost([]float64{0}); c < 3 {
		t.Errorf("Cost([0]) = %v, want ~4 (residual -2)", c)
	}
}

func TestShapeMismatch(t *testing.T) {
	bundle := chainBundle()
	blk := block.Block{Index: 0, Equations: []int{0}, Unknowns: []int{0}}
	_, err := New[noGivens](bundle, blk, noGivens{}, []float64{1}, nil)
	if err == nil {
		t.Fatal("expected SubproblemShapeMismatch error for wrong-length full vector")
	}
}

func TestExpandLeavesOtherEntries(t *testing.T) {
	bundle := chainBundle()
	blk := block.Block{Index: 1, Equations: []int{1}, Unknowns: []int{1}}
	sp, err := New[noGivens](bundle, blk, noGivens{}, []float64{7, 0}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	full := sp.Expand([]float64{9})
	if full[0] != 7 || full[1] != 9 {
		t.Fatalf("Expand = %v, want [7 9]", full)
	}
}

func TestSolveGaussNewtonCommitsResult(t *testing.T) {
	bundle := chainBundle()
	blk := block.Block{Index: 0, Equations: []int{0}, Unknowns: []int{0}}
	sp, err := New[noGivens](bundle, blk, noGivens{}, []float64{0, 0}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	xk, err := sp.SolveGaussNewton(solve.GaussNewtonSettings{})
	if err != nil {
		t.Fatalf("SolveGaussNewton: %v", err)
	}
	if !floats.EqualApprox(xk, []float64{2}, 1e-6) {
		t.Fatalf("SolveGaussNewton result = %v, want [2]", xk)
	}
	if got := sp.InitialOpt(); !floats.EqualApprox(got, []float64{2}, 1e-6) {
		t.Fatalf("block not committed after SolveGaussNewton: %v", got)
	}
}

func TestSolveSimulatedAnnealingCommitsResult(t *testing.T) {
	bundle := chainBundle()
	blk := block.Block{Index: 0, Equations: []int{0}, Unknowns: []int{0}}
	sp, err := New[noGivens](bundle, blk, noGivens{}, []float64{0, 0}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	xk, err := sp.SolveSimulatedAnnealing(solve.SimulatedAnnealSettings{})
	if err != nil {
		t.Fatalf("SolveSimulatedAnnealing: %v", err)
	}
	if got := sp.InitialOpt(); !floats.EqualApprox(got, xk, 1e-12) {
		t.Fatalf("block not committed after SolveSimulatedAnnealing: got %v, want %v", got, xk)
	}
}
