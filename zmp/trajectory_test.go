package zmp

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestTrajectorySampling(t *testing.T) {
	f := formulate(t, toyRequest(), nil)
	coeffs := make([]float64, f.Sequence.OptCoeffCount())

	for _, tc := range []struct {
		dt    float64
		times []float64
	}{
		{0.25, []float64{0, 0.25, 0.5, 0.75, 1}},
		{0.3, []float64{0, 0.3, 0.6, 0.9, 1}},
		{2, []float64{0, 1}},
	} {
		points, err := f.Trajectory(coeffs, tc.dt)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, points, test.ShouldHaveLength, len(tc.times))
		for i, pt := range points {
			test.That(t, pt.Time, test.ShouldAlmostEqual, tc.times[i])
			// the start state rests, so the CoM and the ZMP stay on the start position.
			test.That(t, pt.Pos.X, test.ShouldAlmostEqual, 0.05)
			test.That(t, pt.ZMP.Y, test.ShouldAlmostEqual, 0.05)
		}
		test.That(t, points[len(points)-1].Time, test.ShouldEqual, f.Sequence.TotalTime())
	}

	_, err := f.Trajectory(coeffs, 0)
	test.That(t, errors.Is(err, ErrInvalidGaitRequest), test.ShouldBeTrue)
}
