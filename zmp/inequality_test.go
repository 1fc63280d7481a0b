package zmp

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/mohakhalili/towr/spline"
)

func TestInequalityRowsMatchZMP(t *testing.T) {
	req := walkRequest(t)
	req.StartPosition = r2.Point{X: 0.01, Y: 0.02}
	req.StartVelocity = r2.Point{X: 0.2, Y: -0.1}
	f := formulate(t, req, nil)
	seq := f.Sequence
	x := randomCoeffs(seq, 5)
	rows := f.Inequality.Evaluate(x)
	test.That(t, rows, test.ShouldHaveLength, len(f.Lines))

	for c, l := range f.Lines {
		global := seq.StartTime(l.Spline) + l.Time
		s, err := seq.Evaluate(x, req.StartPosition, req.StartVelocity, global)
		test.That(t, err, test.ShouldBeNil)
		z := f.ZMPOf(s, global)
		test.That(t, rows[c], test.ShouldAlmostEqual, l.Distance(z)-l.Margin, 1e-9)

		zx, zy := f.ZMP.Node(c, x)
		test.That(t, zx, test.ShouldAlmostEqual, z.X, 1e-9)
		test.That(t, zy, test.ShouldAlmostEqual, z.Y, 1e-9)
	}
}

func TestInequalityTouchesEarlierSplines(t *testing.T) {
	f := formulate(t, walkRequest(t), nil)
	last := f.Lines[len(f.Lines)-1]
	test.That(t, last.Spline, test.ShouldBeGreaterThan, 0)
	c := len(f.Lines) - 1

	// the eliminated coefficients depend on the first spline.
	nonZero := false
	for _, coeff := range spline.FreeCoeffs {
		if f.Inequality.M.At(spline.VarIndex(0, spline.X, coeff), c) != 0 {
			nonZero = true
		}
	}
	test.That(t, nonZero, test.ShouldBeTrue)
	// later splines never contribute.
	for id := last.Spline + 1; id < f.Sequence.Len(); id++ {
		for _, dim := range spline.Dims {
			for _, coeff := range spline.FreeCoeffs {
				test.That(t, f.Inequality.M.At(spline.VarIndex(id, dim, coeff), c), test.ShouldEqual, 0.)
			}
		}
	}
}

func TestVerticalAccelerationHook(t *testing.T) {
	req := toyRequest()
	opts := NewDefaultOptions()
	f := formulate(t, req, opts)
	d := spline.VarIndex(0, spline.X, spline.D)
	test.That(t, f.ZMP.X.At(d, 0), test.ShouldAlmostEqual, -2*req.RobotHeight/opts.Gravity)

	opts = NewDefaultOptions()
	opts.VerticalAcceleration = func(float64) float64 { return opts.Gravity }
	f = formulate(t, req, opts)
	test.That(t, f.ZMP.X.At(d, 0), test.ShouldAlmostEqual, -req.RobotHeight/opts.Gravity)
}

func TestMarginFoldedIntoConstant(t *testing.T) {
	req := toyRequest()
	f0 := formulate(t, req, nil)
	req.Margins.Front += 0.05
	req.Margins.Hind += 0.05
	req.Margins.Side += 0.05
	req.Margins.Diag += 0.05
	f1 := formulate(t, req, nil)

	test.That(t, f0.Inequality.M.RawMatrix().Data, test.ShouldResemble, f1.Inequality.M.RawMatrix().Data)
	for c := 0; c < f0.Inequality.Cols(); c++ {
		test.That(t, f0.Inequality.V.AtVec(c)-f1.Inequality.V.AtVec(c), test.ShouldAlmostEqual, 0.05)
	}
}

func TestVerticalAccelerationCancellingGravity(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		opts := NewDefaultOptions()
		opts.Parallel = parallel
		// free fall from t = 1 on.
		opts.VerticalAcceleration = func(t float64) float64 {
			if t >= 1 {
				return -opts.Gravity
			}
			return 0
		}
		_, err := newTestOptimizer(t, opts).Formulate(context.Background(), walkRequest(t))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, ErrInvalidGaitRequest), test.ShouldBeTrue)

		opts.VerticalAcceleration = func(float64) float64 { return math.NaN() }
		_, err = newTestOptimizer(t, opts).Formulate(context.Background(), walkRequest(t))
		test.That(t, errors.Is(err, ErrInvalidGaitRequest), test.ShouldBeTrue)
	}
}
