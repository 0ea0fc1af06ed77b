package objective

import (
	"testing"

	"github.com/blocksolve/blocksolve/residual"
	"gonum.org/v1/gonum/floats"
)

type givens struct{}

func linearBundle() residual.Bundle[givens] {
	return residual.NewBundle([]residual.Func[givens]{
		func(g givens, x []float64) float64 { return x[0] - 2 },
		func(g givens, x []float64) float64 { return x[1] + 3 },
	}, []string{"eq0", "eq1"})
}

func TestValuesIdentityVector(t *testing.T) {
	obj := New[givens](linearBundle(), givens{}, nil, Identity{}, VectorAggregator{})
	v, err := obj.Values([]float64{2, -3})
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if !floats.EqualApprox(v, []float64{0, 0}, 1e-12) {
		t.Fatalf("Values = %v, want [0 0]", v)
	}
}

func TestValuesSumUnscaledL2Cost(t *testing.T) {
	obj := New[givens](linearBundle(), givens{}, nil, UnscaledL2{}, SumAggregator{})
	cost := obj.Cost([]float64{3, -1})
	// residuals: (3-2)=1, (-1+3)=2 -> squares 1,4 -> sum 5
	if !floats.EqualWithinAbsOrRel(cost, 5, 1e-12, 1e-12) {
		t.Fatalf("Cost = %v, want 5", cost)
	}
}

func TestGradientFiniteDifference(t *testing.T) {
	obj := New[givens](linearBundle(), givens{}, nil, UnscaledL2{}, SumAggregator{})
	grad := obj.Gradient([]float64{2, -3})
	// at the root, gradient of sum-of-squares should be ~0
	for i, g := range grad {
		if g > 1e-4 || g < -1e-4 {
			t.Errorf("grad[%d] = %v, want ~0 at root", i, g)
		}
	}
}

func TestJacobianShape(t *testing.T) {
	obj := New[givens](linearBundle(), givens{}, nil, Identity{}, VectorAggregator{})
	jac := obj.Jacobian([]float64{1, 1})
	r, c := jac.Dims()
	if r != 2 || c != 2 {
		t.Fatalf("Jacobian dims = %d x %d, want 2x2", r, c)
	}
	// d(eq0)/dx0 ~= 1, d(eq0)/dx1 ~= 0, d(eq1)/dx0 ~= 0, d(eq1)/dx1 ~= 1
	if v := jac.At(0, 0); v < 0.99 || v > 1.01 {
		t.Errorf("jac[0][0] = %v, want ~1", v)
	}
	if v := jac.At(1, 1); v < 0.99 || v > 1.01 {
		t.Errorf("jac[1][1] = %v, want ~1", v)
	}
}

func TestScaledL2(t *testing.T) {
	obj := New[givens](linearBundle(), givens{}, nil, ScaledL2{Scale: []float64{2, 4}}, SumAggregator{})
	cost := obj.Cost([]float64{3, -1})
	// residuals 1,2 -> squares 1,4 -> scaled 0.5,1 -> sum 1.5
	if !floats.EqualWithinAbsOrRel(cost, 1.5, 1e-12, 1e-12) {
		t.Fatalf("Cost = %v, want 1.5", cost)
	}
}
