package zmp

import (
	"gonum.org/v1/gonum/mat"
)

// MatVec is a quadratic form or a set of linear constraints over the optimization vector. For
// constraints every column of M is one constraint, read as Mᵀx + v = 0 for equalities and
// Mᵀx + v ≥ 0 for inequalities. For the cost, ½ xᵀMx + vᵀx. M and V are nil when there are no
// columns.
type MatVec struct {
	M *mat.Dense
	V *mat.VecDense
}

// newMatVec allocates a zeroed system of rows variables and cols constraints.
func newMatVec(rows, cols int) MatVec {
	if rows == 0 || cols == 0 {
		return MatVec{}
	}
	return MatVec{M: mat.NewDense(rows, cols, nil), V: mat.NewVecDense(cols, nil)}
}

// Cols returns the number of constraints.
func (mv MatVec) Cols() int {
	if mv.M == nil {
		return 0
	}
	_, c := mv.M.Dims()
	return c
}

// Rows returns the number of variables.
func (mv MatVec) Rows() int {
	if mv.M == nil {
		return 0
	}
	r, _ := mv.M.Dims()
	return r
}

// Values returns the constants in v as a slice, nil if there are none.
func (mv MatVec) Values() []float64 {
	if mv.V == nil {
		return nil
	}
	return mv.V.RawVector().Data
}

// Evaluate returns Mᵀx + v.
func (mv MatVec) Evaluate(x []float64) []float64 {
	if mv.M == nil {
		return nil
	}
	var out mat.VecDense
	out.MulVec(mv.M.T(), mat.NewVecDense(len(x), x))
	out.AddVec(&out, mv.V)
	return out.RawVector().Data
}

// Equal reports whether both systems hold identical values.
func (mv MatVec) Equal(other MatVec) bool {
	if (mv.M == nil) != (other.M == nil) {
		return false
	}
	if mv.M == nil {
		return true
	}
	return mat.Equal(mv.M, other.M) && mat.Equal(mv.V, other.V)
}

func (mv MatVec) add(row, col int, v float64) {
	mv.M.Set(row, col, mv.M.At(row, col)+v)
}

// denseOrNil returns M as a mat.Matrix, keeping a nil M a nil interface.
func denseOrNil(mv MatVec) mat.Matrix {
	if mv.M == nil {
		return nil
	}
	return mv.M
}
