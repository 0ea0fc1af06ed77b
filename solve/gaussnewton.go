package solve

import (
	"math"

	"github.com/blocksolve/blocksolve/bserr"
	"gonum.org/v1/gonum/mat"
)

// maxGaussNewtonIterations is the hard iteration cap from spec.md §4.4(a).
const maxGaussNewtonIterations = 10000

// VectorProblem is the surface solve.GaussNewton needs: a residual vector
// and its Jacobian at a point, both addressable by a fixed dimension.
// subproblem.SubProblem and objective.Objective (used for the full-problem
// case) both satisfy this.
type VectorProblem interface {
	Len() int
	Residuals(dst, x []float64) error
	Jacobian(x []float64) *mat.Dense
}

// GaussNewtonSettings configures solve.GaussNewton. The zero value uses
// spec.md's stated defaults.
type GaussNewtonSettings struct {
	// MaxIterations caps the number of normal-equation steps. 0 means the
	// spec default of 10000.
	MaxIterations int
	Observer      Observer
}

func (s GaussNewtonSettings) maxIterations() int {
	if s.MaxIterations == 0 {
		return maxGaussNewtonIterations
	}
	return s.MaxIterations
}

func (s GaussNewtonSettings) observer() Observer {
	if s.Observer == nil {
		return NopObserver{}
	}
	return s.Observer
}

// GaussNewton solves p.Residuals(x) = 0 starting at x0 using the
// Gauss-Newton normal equations (JᵀJ)δ = -Jᵀr, with a backtracking line
// search bounded to step fractions in [0,1] on the residual 2-norm. It
// returns GaussNewtonDiverged if the residual or Jacobian ever becomes
// non-finite, if the normal equations are singular, or if no step in
// [0,1] decreases the residual norm.
func GaussNewton(p VectorProblem, x0 []float64, settings GaussNewtonSettings) ([]float64, error) {
	n := p.Len()
	if len(x0) != n {
		return nil, bserr.New(bserr.DimensionMismatch, "gaussnewton: x0 has length %d, want %d", len(x0), n)
	}
	obs := settings.observer()

	x := make([]float64, n)
	copy(x, x0)
	r := make([]float64, n)

	if err := p.Residuals(r, x); err != nil {
		return nil, bserr.Wrap(bserr.GaussNewtonDiverged, err, "gaussnewton: initial residual evaluation failed")
	}
	normR := mat.Norm(mat.NewVecDense(n, r), 2)
	obs.Observe(0, normR*normR)

	for iter := 1; iter <= settings.maxIterations(); iter++ {
		if !allFinite(r) {
			return nil, bserr.New(bserr.GaussNewtonDiverged, "gaussnewton: residual became non-finite at iteration %d", iter)
		}
		if normR < 1e-12 {
			return x, nil
		}

		jac := p.Jacobian(x)
		if !matFinite(jac) {
			return nil, bserr.New(bserr.GaussNewtonDiverged, "gaussnewton: jacobian became non-finite at iteration %d", iter)
		}

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		rVec := mat.NewVecDense(n, r)
		var jtr mat.VecDense
		jtr.MulVec(jac.T(), rVec)

		var delta mat.VecDense
		if err := delta.SolveVec(&jtj, &jtr); err != nil {
			return nil, bserr.Wrap(bserr.GaussNewtonDiverged, err, "gaussnewton: singular normal equations at iteration %d", iter)
		}

		// Step is x_new = x - step*delta; bounded backtracking over the
		// residual 2-norm, step fractions in [0,1].
		step := 1.0
		accepted := false
		var xNew []float64
		var newNorm float64
		for k := 0; k < 30; k++ {
			xNew = make([]float64, n)
			for i := range xNew {
				xNew[i] = x[i] - step*delta.AtVec(i)
			}
			rNew := make([]float64, n)
			if err := p.Residuals(rNew, xNew); err == nil && allFinite(rNew) {
				newNorm = mat.Norm(mat.NewVecDense(n, rNew), 2)
				if newNorm < normR {
					copy(r, rNew)
					accepted = true
					break
				}
			}
			step *= 0.5
		}
		if !accepted {
			return nil, bserr.New(bserr.GaussNewtonDiverged,
				"gaussnewton: line search failed to decrease residual norm at iteration %d", iter)
		}

		x = xNew
		normR = newNorm
		obs.Observe(iter, normR*normR)
	}
	return x, nil
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func matFinite(m *mat.Dense) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
