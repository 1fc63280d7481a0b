package zmp

import (
	"github.com/golang/geo/r2"

	"github.com/mohakhalili/towr/spline"
	"github.com/mohakhalili/towr/utils"
)

const (
	startConstraintsPerAxis    = 2
	endConstraintsPerAxis      = 3
	junctionConstraintsPerAxis = 2
)

// EqualityConstraintCount is the number of rows built by EqualityConstraints for a sequence of
// the given length, both axes included.
func EqualityConstraintCount(splines int) int {
	if splines <= 0 {
		return 0
	}
	perAxis := startConstraintsPerAxis + endConstraintsPerAxis + junctionConstraintsPerAxis*(splines-1)
	return spline.NumDims * perAxis
}

// EqualityConstraints pins the initial acceleration and jerk, the final position, velocity and
// acceleration, and makes acceleration and jerk continuous across every junction. Position and
// velocity continuity hold by construction of the eliminated coefficients.
//
// Rows are ordered start acc, start jerk, end pos, end vel, end acc for x then y, followed by
// acc and jerk for x then y at each junction.
func EqualityConstraints(seq *spline.Sequence, req *Request, endPosition r2.Point) MatVec {
	ec := newMatVec(seq.OptCoeffCount(), EqualityConstraintCount(seq.Len()))
	row := 0

	first := seq.Spline(0)
	last := seq.Last()
	t := utils.CacheExponents(last.Duration, 5)
	for _, dim := range spline.Dims {
		v0 := component(req.StartVelocity, dim)
		p0 := component(req.StartPosition, dim)

		// start acceleration, 2d = acc0
		ec.M.Set(spline.VarIndex(first.ID, dim, spline.D), row, 2)
		ec.V.SetVec(row, -component(req.StartAcceleration, dim))
		row++

		// start jerk, 6c = jerk0
		ec.M.Set(spline.VarIndex(first.ID, dim, spline.C), row, 6)
		ec.V.SetVec(row, -component(req.StartJerk, dim))
		row++

		velDep := seq.VelocityDependency(last.ID, dim, v0)
		posDep := seq.PositionDependency(last.ID, dim, v0, p0)

		// end position
		ec.M.Set(spline.VarIndex(last.ID, dim, spline.A), row, t[5])
		ec.M.Set(spline.VarIndex(last.ID, dim, spline.B), row, t[4])
		ec.M.Set(spline.VarIndex(last.ID, dim, spline.C), row, t[3])
		ec.M.Set(spline.VarIndex(last.ID, dim, spline.D), row, t[2])
		velDep.AddToColumn(ec.M, row, t[1])
		posDep.AddToColumn(ec.M, row, 1)
		ec.V.SetVec(row, velDep.Constant*t[1]+posDep.Constant-component(endPosition, dim))
		row++

		// end velocity
		ec.M.Set(spline.VarIndex(last.ID, dim, spline.A), row, 5*t[4])
		ec.M.Set(spline.VarIndex(last.ID, dim, spline.B), row, 4*t[3])
		ec.M.Set(spline.VarIndex(last.ID, dim, spline.C), row, 3*t[2])
		ec.M.Set(spline.VarIndex(last.ID, dim, spline.D), row, 2*t[1])
		velDep.AddToColumn(ec.M, row, 1)
		ec.V.SetVec(row, velDep.Constant)
		row++

		// end acceleration
		ec.M.Set(spline.VarIndex(last.ID, dim, spline.A), row, 20*t[3])
		ec.M.Set(spline.VarIndex(last.ID, dim, spline.B), row, 12*t[2])
		ec.M.Set(spline.VarIndex(last.ID, dim, spline.C), row, 6*t[1])
		ec.M.Set(spline.VarIndex(last.ID, dim, spline.D), row, 2)
		row++
	}

	for s := 0; s+1 < seq.Len(); s++ {
		cur := seq.Spline(s)
		next := seq.Spline(s + 1)
		t := utils.CacheExponents(cur.Duration, 3)
		for _, dim := range spline.Dims {
			// acceleration at the end of cur equals acceleration at the start of next
			ec.M.Set(spline.VarIndex(cur.ID, dim, spline.A), row, 20*t[3])
			ec.M.Set(spline.VarIndex(cur.ID, dim, spline.B), row, 12*t[2])
			ec.M.Set(spline.VarIndex(cur.ID, dim, spline.C), row, 6*t[1])
			ec.M.Set(spline.VarIndex(cur.ID, dim, spline.D), row, 2)
			ec.M.Set(spline.VarIndex(next.ID, dim, spline.D), row, -2)
			row++

			// jerk
			ec.M.Set(spline.VarIndex(cur.ID, dim, spline.A), row, 60*t[2])
			ec.M.Set(spline.VarIndex(cur.ID, dim, spline.B), row, 24*t[1])
			ec.M.Set(spline.VarIndex(cur.ID, dim, spline.C), row, 6)
			ec.M.Set(spline.VarIndex(next.ID, dim, spline.C), row, -6)
			row++
		}
	}
	return ec
}
