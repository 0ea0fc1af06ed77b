package decompose

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Binarize maps a numeric Jacobian sample to its structural sparsity
// pattern: 1 where an entry is finite and nonzero (a real dependency),
// NaN where an entry is non-finite (an unstable probe that must not be
// mistaken for "no dependency", see DESIGN.md Open Question resolutions),
// and 0 where an entry is exactly zero.
func Binarize(jac *mat.Dense) *mat.Dense {
	r, c := jac.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := jac.At(i, j)
			switch {
			case math.IsNaN(v) || math.IsInf(v, 0):
				out.Set(i, j, math.NaN())
			case v != 0:
				out.Set(i, j, 1)
			default:
				out.Set(i, j, 0)
			}
		}
	}
	return out
}

// present reports whether entry (i,j) of a binarized matrix represents a
// structural dependency: either the "1" sentinel or the NaN sentinel
// (treated as present, per the Open Question resolution in DESIGN.md).
func present(bin *mat.Dense, i, j int) bool {
	v := bin.At(i, j)
	return v != 0 // true for 1 and for NaN (NaN != 0 is true in Go)
}
