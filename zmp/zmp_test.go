package zmp

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/mohakhalili/towr/legs"
	"github.com/mohakhalili/towr/logging"
	"github.com/mohakhalili/towr/spline"
	"github.com/mohakhalili/towr/supportpolygon"
)

var nominalStance = legs.Stance{
	legs.LF: {X: 0.3, Y: 0.2},
	legs.RF: {X: 0.3, Y: -0.2},
	legs.LH: {X: -0.3, Y: 0.2},
	legs.RH: {X: -0.3, Y: -0.2},
}

// walkRequest returns a request for one gait cycle moving every foot 0.1 forward.
func walkRequest(t *testing.T) *Request {
	t.Helper()
	order := []legs.LegID{legs.LH, legs.LF, legs.RH, legs.RF}
	seq, err := spline.ConstructSequence(order, spline.DefaultTiming())
	test.That(t, err, test.ShouldBeNil)
	steps := make([]legs.Foothold, 0, len(order))
	for _, id := range order {
		pos := nominalStance[id]
		pos.X += 0.1
		steps = append(steps, legs.Foothold{Leg: id, Pos: pos})
	}
	return &Request{
		Splines:     seq.Splines(),
		StartStance: nominalStance,
		Steps:       steps,
		Weights:     Weights{X: 1, Y: 1},
		Margins:     supportpolygon.UniformMargins(0.02),
		RobotHeight: 0.5,
	}
}

// toyRequest is a single constrained spline whose start state already satisfies every
// constraint: the CoM rests on the centroid of the final stance inside the support triangle.
func toyRequest() *Request {
	return &Request{
		Splines:       []spline.Spline{{ID: 0, Duration: 1, Step: 0}},
		StartPosition: r2.Point{X: 0.05, Y: 0.05},
		StartStance:   nominalStance,
		Steps:         []legs.Foothold{{Leg: legs.RH, Pos: r3.Vector{X: -0.1, Y: 0}}},
		Margins:       supportpolygon.UniformMargins(0.01),
		RobotHeight:   0.5,
	}
}

func newTestOptimizer(t *testing.T, opts *Options) *Optimizer {
	t.Helper()
	o, err := NewOptimizer(logging.NewTestLogger(t), opts)
	test.That(t, err, test.ShouldBeNil)
	return o
}

func formulate(t *testing.T, req *Request, opts *Options) *Formulation {
	t.Helper()
	f, err := newTestOptimizer(t, opts).Formulate(context.Background(), req)
	test.That(t, err, test.ShouldBeNil)
	return f
}

func randomCoeffs(seq *spline.Sequence, seed int64) []float64 {
	//nolint:gosec
	rnd := rand.New(rand.NewSource(seed))
	x := make([]float64, seq.OptCoeffCount())
	for i := range x {
		x[i] = rnd.Float64()*2 - 1
	}
	return x
}

// splineDerivatives returns acceleration and jerk of one spline at local time t.
func splineDerivatives(x []float64, id int, dim spline.Dim, t float64) (float64, float64) {
	a := x[spline.VarIndex(id, dim, spline.A)]
	b := x[spline.VarIndex(id, dim, spline.B)]
	c := x[spline.VarIndex(id, dim, spline.C)]
	d := x[spline.VarIndex(id, dim, spline.D)]
	acc := 20*a*math.Pow(t, 3) + 12*b*t*t + 6*c*t + 2*d
	jerk := 60*a*t*t + 24*b*t + 6*c
	return acc, jerk
}
