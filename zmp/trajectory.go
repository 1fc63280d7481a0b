package zmp

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/mohakhalili/towr/spline"
	"github.com/mohakhalili/towr/utils"
)

// endTimeTolerance merges a final sample that rounding left just short of the end.
const endTimeTolerance = 1e-9

// TrajectoryPoint is the center of mass state and the resulting ZMP at one instant.
type TrajectoryPoint struct {
	Time float64
	spline.State
	ZMP r2.Point
}

// ZMPOf returns the zero moment point for a center of mass state at global time t.
func (f *Formulation) ZMPOf(s spline.State, t float64) r2.Point {
	hg := f.Request.RobotHeight / (f.opts.Gravity + f.opts.verticalAcceleration(t))
	return s.Pos.Sub(s.Acc.Mul(hg))
}

// Trajectory evaluates the solution every dt seconds from the start to the end of the sequence,
// end included.
func (f *Formulation) Trajectory(coeffs []float64, dt float64) ([]TrajectoryPoint, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	if !(dt > 0) {
		return nil, NewInvalidGaitRequestError("trajectory sampling interval must be positive, got %v", dt)
	}
	total := f.Sequence.TotalTime()
	count := NodeCount(total, dt)
	times := make([]float64, 0, count+2)
	for i := 0; i <= count; i++ {
		times = append(times, math.Min(float64(i)*dt, total))
	}
	switch last := times[len(times)-1]; {
	case utils.Float64AlmostEqual(last, total, endTimeTolerance):
		times[len(times)-1] = total
	case last < total:
		times = append(times, total)
	}
	points := make([]TrajectoryPoint, 0, len(times))
	for _, t := range times {
		s, err := f.Sequence.Evaluate(coeffs, f.Request.StartPosition, f.Request.StartVelocity, t)
		if err != nil {
			return nil, err
		}
		if _, err := f.opts.effectiveGravity(t); err != nil {
			return nil, err
		}
		points = append(points, TrajectoryPoint{Time: t, State: s, ZMP: f.ZMPOf(s, t)})
	}
	return points, nil
}
