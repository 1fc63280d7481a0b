package zmp

import (
	"github.com/mohakhalili/towr/spline"
	"github.com/mohakhalili/towr/utils"
)

// CostFunction returns the Hessian of the integrated squared acceleration of every spline and
// axis, weighted per axis. The matrix is block diagonal over (spline, axis) pairs and the cost
// has no linear term.
func CostFunction(seq *spline.Sequence, weights Weights) MatVec {
	n := seq.OptCoeffCount()
	cf := newMatVec(n, n)
	for _, sp := range seq.Splines() {
		t := utils.CacheExponents(sp.Duration, 7)
		for _, dim := range spline.Dims {
			w := weights.of(dim)
			a := spline.VarIndex(sp.ID, dim, spline.A)
			b := spline.VarIndex(sp.ID, dim, spline.B)
			c := spline.VarIndex(sp.ID, dim, spline.C)
			d := spline.VarIndex(sp.ID, dim, spline.D)

			// ∫₀ᵀ (20at³ + 12bt² + 6ct + 2d)² dt, upper triangle.
			cf.M.Set(a, a, w*400.0/7.0*t[7])
			cf.M.Set(a, b, w*40.0*t[6])
			cf.M.Set(a, c, w*24.0*t[5])
			cf.M.Set(a, d, w*10.0*t[4])
			cf.M.Set(b, b, w*144.0/5.0*t[5])
			cf.M.Set(b, c, w*18.0*t[4])
			cf.M.Set(b, d, w*8.0*t[3])
			cf.M.Set(c, c, w*12.0*t[3])
			cf.M.Set(c, d, w*6.0*t[2])
			cf.M.Set(d, d, w*4.0*t[1])
		}
	}
	// mirror
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			cf.M.Set(i, j, cf.M.At(j, i))
		}
	}
	return cf
}
