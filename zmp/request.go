package zmp

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/mohakhalili/towr/legs"
	"github.com/mohakhalili/towr/spline"
	"github.com/mohakhalili/towr/supportpolygon"
	"github.com/mohakhalili/towr/utils"
)

// Weights scale the cost of each horizontal axis.
type Weights struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (w Weights) of(dim spline.Dim) float64 {
	if dim == spline.X {
		return w.X
	}
	return w.Y
}

// Request is one planning problem. It is not modified by the optimizer.
type Request struct {
	Splines []spline.Spline

	StartPosition r2.Point
	StartVelocity r2.Point
	// StartAcceleration and StartJerk pin the initial acceleration and jerk, zero by default.
	StartAcceleration r2.Point
	StartJerk         r2.Point

	StartStance legs.Stance
	Steps       []legs.Foothold

	Weights     Weights
	Margins     supportpolygon.Margins
	RobotHeight float64
}

// validate checks the request and builds its spline sequence.
func (r *Request) validate() (*spline.Sequence, error) {
	if r == nil || len(r.Splines) == 0 {
		return nil, NewNoSplinesError()
	}
	for _, sp := range r.Splines {
		if !(sp.Duration > 0) || math.IsInf(sp.Duration, 1) {
			return nil, NewInvalidGaitRequestError("spline %d has non-positive duration %v", sp.ID, sp.Duration)
		}
	}
	seq, err := spline.NewSequence(r.Splines)
	if err != nil {
		return nil, NewInvalidGaitRequestError("%v", err)
	}
	for _, sp := range seq.ConstrainedSplines() {
		if sp.Step >= len(r.Steps) {
			return nil, NewInvalidGaitRequestError(
				"spline %d needs the support triangle of step %d but only %d steps are given", sp.ID, sp.Step, len(r.Steps))
		}
	}
	if !(r.RobotHeight > 0) {
		return nil, NewInvalidGaitRequestError("robot height must be positive, got %v", r.RobotHeight)
	}
	if r.Weights.X < 0 || r.Weights.Y < 0 || !utils.IsFinite(r.Weights.X) || !utils.IsFinite(r.Weights.Y) {
		return nil, NewInvalidGaitRequestError("weights must be finite and non-negative, got %+v", r.Weights)
	}
	for _, v := range []float64{r.StartPosition.X, r.StartPosition.Y, r.StartVelocity.X, r.StartVelocity.Y} {
		if !utils.IsFinite(v) {
			return nil, NewInvalidGaitRequestError("start state must be finite")
		}
	}
	return seq, nil
}

func component(p r2.Point, dim spline.Dim) float64 {
	if dim == spline.X {
		return p.X
	}
	return p.Y
}
