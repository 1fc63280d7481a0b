package zmp

import (
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/mohakhalili/towr/spline"
)

func TestCostSymmetric(t *testing.T) {
	req := walkRequest(t)
	req.Weights = Weights{X: 2.5, Y: 0.7}
	f := formulate(t, req, nil)
	n := f.Sequence.OptCoeffCount()
	test.That(t, f.Cost.Rows(), test.ShouldEqual, n)
	test.That(t, f.Cost.Cols(), test.ShouldEqual, n)
	test.That(t, mat.EqualApprox(f.Cost.M, f.Cost.M.T(), 0), test.ShouldBeTrue)
	test.That(t, mat.Norm(f.Cost.V, 2), test.ShouldEqual, 0.)
}

func TestCostZeroWeights(t *testing.T) {
	f := formulate(t, toyRequest(), nil)
	test.That(t, mat.Norm(f.Cost.M, 1), test.ShouldEqual, 0.)
}

func TestCostSingleAxisWeight(t *testing.T) {
	req := toyRequest()
	req.Weights = Weights{X: 1}
	f := formulate(t, req, nil)

	for _, c1 := range spline.FreeCoeffs {
		for _, c2 := range spline.FreeCoeffs {
			test.That(t, f.Cost.M.At(spline.VarIndex(0, spline.Y, c1), spline.VarIndex(0, spline.Y, c2)), test.ShouldEqual, 0.)
			test.That(t, f.Cost.M.At(spline.VarIndex(0, spline.X, c1), spline.VarIndex(0, spline.Y, c2)), test.ShouldEqual, 0.)
		}
	}
	// T = 1 leaves the bare integration constants.
	test.That(t, f.Cost.M.At(spline.VarIndex(0, spline.X, spline.A), spline.VarIndex(0, spline.X, spline.A)),
		test.ShouldAlmostEqual, 400.0/7.0)
	test.That(t, f.Cost.M.At(spline.VarIndex(0, spline.X, spline.D), spline.VarIndex(0, spline.X, spline.B)),
		test.ShouldAlmostEqual, 8.0)
	test.That(t, f.Cost.M.At(spline.VarIndex(0, spline.X, spline.D), spline.VarIndex(0, spline.X, spline.D)),
		test.ShouldAlmostEqual, 4.0)
}

func TestCostIntegratesSquaredAcceleration(t *testing.T) {
	req := walkRequest(t)
	f := formulate(t, req, nil)
	x := randomCoeffs(f.Sequence, 3)

	xv := mat.NewVecDense(len(x), x)
	var mx mat.VecDense
	mx.MulVec(f.Cost.M, xv)
	quadratic := mat.Dot(xv, &mx)

	// Simpson's rule over every spline, the integrand is a polynomial of degree 6.
	const intervals = 200
	integral := 0.0
	for _, sp := range f.Sequence.Splines() {
		h := sp.Duration / intervals
		for _, dim := range spline.Dims {
			for i := 0; i <= intervals; i++ {
				acc, _ := splineDerivatives(x, sp.ID, dim, float64(i)*h)
				w := 2.0
				switch {
				case i == 0 || i == intervals:
					w = 1
				case i%2 == 1:
					w = 4
				}
				integral += w * acc * acc * h / 3
			}
		}
	}
	test.That(t, quadratic, test.ShouldAlmostEqual, integral, 1e-6*integral)
}

func TestCostBlockDiagonal(t *testing.T) {
	f := formulate(t, walkRequest(t), nil)
	n := f.Sequence.OptCoeffCount()
	block := spline.NumFreeCoeffs
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i/block != j/block {
				test.That(t, f.Cost.M.At(i, j), test.ShouldEqual, 0.)
			}
		}
	}
}
