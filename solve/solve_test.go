package solve

import (
	"errors"
	"math"
	"testing"

	"github.com/blocksolve/blocksolve/bserr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// linearProblem implements both VectorProblem and ScalarProblem for
// F(x) = x - target (affine, so Gauss-Newton converges in one step and
// L-BFGS/simulated annealing have a single, easily verified minimum).
type linearProblem struct {
	target []float64
}

func (p linearProblem) Len() int { return len(p.target) }

func (p linearProblem) Residuals(dst, x []float64) error {
	for i := range dst {
		dst[i] = x[i] - p.target[i]
	}
	return nil
}

func (p linearProblem) Jacobian(x []float64) *mat.Dense {
	n := len(p.target)
	jac := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		jac.Set(i, i, 1)
	}
	return jac
}

func (p linearProblem) Cost(x []float64) float64 {
	var sum float64
	for i := range x {
		d := x[i] - p.target[i]
		sum += d * d
	}
	return sum
}

func (p linearProblem) Gradient(x []float64) []float64 {
	grad := make([]float64, len(x))
	for i := range x {
		grad[i] = 2 * (x[i] - p.target[i])
	}
	return grad
}

func TestGaussNewtonConverges(t *testing.T) {
	p := linearProblem{target: []float64{3, -2}}
	x, err := GaussNewton(p, []float64{0, 0}, GaussNewtonSettings{})
	if err != nil {
		t.Fatalf("GaussNewton: %v", err)
	}
	if !floats.EqualApprox(x, p.target, 1e-6) {
		t.Fatalf("GaussNewton result = %v, want %v", x, p.target)
	}
}

func TestGaussNewtonDimensionMismatch(t *testing.T) {
	p := linearProblem{target: []float64{1, 2}}
	_, err := GaussNewton(p, []float64{0}, GaussNewtonSettings{})
	if !errors.Is(err, bserr.DimensionMismatch) {
		t.Fatalf("err = %v, want DimensionMismatch", err)
	}
}

type nonFiniteProblem struct{}

func (nonFiniteProblem) Len() int { return 1 }
func (nonFiniteProblem) Residuals(dst, x []float64) error {
	dst[0] = math.NaN()
	return nil
}
func (nonFiniteProblem) Jacobian(x []float64) *mat.Dense {
	return mat.NewDense(1, 1, []float64{1})
}

func TestGaussNewtonDivergesOnNonFinite(t *testing.T) {
	_, err := GaussNewton(nonFiniteProblem{}, []float64{0}, GaussNewtonSettings{})
	if !errors.Is(err, bserr.GaussNewtonDiverged) {
		t.Fatalf("err = %v, want GaussNewtonDiverged", err)
	}
}

func TestLBFGSConverges(t *testing.T) {
	p := linearProblem{target: []float64{1, 1, 1}}
	x, err := LBFGS(p, []float64{0, 0, 0}, LBFGSSettings{})
	if err != nil {
		t.Fatalf("LBFGS: %v", err)
	}
	if !floats.EqualApprox(x, p.target, 1e-4) {
		t.Fatalf("LBFGS result = %v, want %v", x, p.target)
	}
}

func TestSimulatedAnnealApproachesMinimum(t *testing.T) {
	p := linearProblem{target: []float64{2}}
	x, err := SimulatedAnneal(p, []float64{0}, SimulatedAnnealSettings{})
	if err != nil {
		t.Fatalf("SimulatedAnneal: %v", err)
	}
	if math.Abs(x[0]-2) > 1.0 {
		t.Fatalf("SimulatedAnneal result = %v, want near 2", x)
	}
}

// The shared RNG backing SimulatedAnneal is seeded once per process and
// then advances with every proposal across every call (see DESIGN.md on
// the persisted Arc<Mutex<StdRng>>-style RNG), so two calls within the
// same process draw from different points in the stream and are not
// expected to agree; only a fresh process with the same seed reproduces
// a given call's trajectory. lerp/clamp01 are what's tested for
// determinism directly.
func TestLerpAndClamp01(t *testing.T) {
	if v := lerp(0, 10, 0.5); v != 5 {
		t.Errorf("lerp(0,10,0.5) = %v, want 5", v)
	}
	if v := clamp01(-1); v != 0 {
		t.Errorf("clamp01(-1) = %v, want 0", v)
	}
	if v := clamp01(2); v != 1 {
		t.Errorf("clamp01(2) = %v, want 1", v)
	}
	if v := clamp01(0.3); v != 0.3 {
		t.Errorf("clamp01(0.3) = %v, want 0.3", v)
	}
}

type observerSpy struct {
	calls int
}

func (o *observerSpy) Observe(iteration int, cost float64) { o.calls++ }

func TestGaussNewtonObserverCalled(t *testing.T) {
	p := linearProblem{target: []float64{1}}
	obs := &observerSpy{}
	_, err := GaussNewton(p, []float64{5}, GaussNewtonSettings{Observer: obs})
	if err != nil {
		t.Fatalf("GaussNewton: %v", err)
	}
	if obs.calls == 0 {
		t.Fatal("observer was never called")
	}
}
