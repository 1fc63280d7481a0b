package spline

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/mohakhalili/towr/utils"
)

// Sequence is an ordered, immutable list of splines together with the cached dependency
// vectors of their eliminated coefficients.
type Sequence struct {
	splines []Spline
	starts  []float64
	deps    [NumDims][]eliminated
}

// NewSequence validates the splines and precomputes the elimination dependencies. Spline IDs
// must equal their position in the list and every duration must be positive.
func NewSequence(splines []Spline) (*Sequence, error) {
	if len(splines) == 0 {
		return nil, errors.New("spline sequence must contain at least one spline")
	}
	starts := make([]float64, len(splines))
	elapsed := 0.0
	for i, s := range splines {
		if s.ID != i {
			return nil, errors.Errorf("spline at position %d has id %d, ids must be consecutive from 0", i, s.ID)
		}
		if !(s.Duration > 0) {
			return nil, errors.Errorf("spline %d has non-positive duration %v", s.ID, s.Duration)
		}
		if s.Step < 0 {
			return nil, errors.Errorf("spline %d has negative step index %d", s.ID, s.Step)
		}
		starts[i] = elapsed
		elapsed += s.Duration
	}
	seq := &Sequence{
		splines: append([]Spline(nil), splines...),
		starts:  starts,
	}
	seq.deps = buildDependencies(seq.splines, seq.OptCoeffCount())
	return seq, nil
}

// Splines returns a copy of the splines in order.
func (s *Sequence) Splines() []Spline {
	return append([]Spline(nil), s.splines...)
}

// Len returns the number of splines.
func (s *Sequence) Len() int {
	return len(s.splines)
}

// Spline returns the spline with the given id.
func (s *Sequence) Spline(id int) Spline {
	return s.splines[id]
}

// Last returns the final spline.
func (s *Sequence) Last() Spline {
	return s.splines[len(s.splines)-1]
}

// OptCoeffCount is the length of the optimization vector.
func (s *Sequence) OptCoeffCount() int {
	return len(s.splines) * NumDims * NumFreeCoeffs
}

// TotalTime is the summed duration of all splines.
func (s *Sequence) TotalTime() float64 {
	return lo.SumBy(s.splines, func(sp Spline) float64 { return sp.Duration })
}

// StartTime returns the global time at which spline id begins.
func (s *Sequence) StartTime(id int) float64 {
	return s.starts[id]
}

// StepCount returns one more than the highest step index referenced by any spline.
func (s *Sequence) StepCount() int {
	return lo.MaxBy(s.splines, func(a, b Spline) bool { return a.Step > b.Step }).Step + 1
}

// ConstrainedSplines returns the splines whose ZMP must stay inside a support triangle.
func (s *Sequence) ConstrainedSplines() []Spline {
	return lo.Filter(s.splines, func(sp Spline, _ int) bool { return !sp.FourLegSupport })
}

// VelocityDependency describes the eliminated e coefficient (start velocity) of spline k along
// dim as a combination of the free coefficients of splines before k.
func (s *Sequence) VelocityDependency(k int, dim Dim, startVel float64) Dependency {
	return Dependency{Terms: s.deps[dim][k].velocity, Constant: startVel}
}

// PositionDependency describes the eliminated f coefficient (start position) of spline k along
// dim as a combination of the free coefficients of splines before k.
func (s *Sequence) PositionDependency(k int, dim Dim, startVel, startPos float64) Dependency {
	return Dependency{Terms: s.deps[dim][k].position, Constant: startPos + startVel*s.starts[k]}
}

// Locate returns the spline active at global time t and the time elapsed inside it. Times past
// the end map onto the end of the last spline.
func (s *Sequence) Locate(t float64) (Spline, float64) {
	for i, sp := range s.splines {
		if t < s.starts[i]+sp.Duration || i == len(s.splines)-1 {
			local := t - s.starts[i]
			if local < 0 {
				local = 0
			}
			if local > sp.Duration {
				local = sp.Duration
			}
			return sp, local
		}
	}
	// unreachable, NewSequence guarantees at least one spline.
	return s.Last(), s.Last().Duration
}

// State is the kinematic state of the center of mass at one instant.
type State struct {
	Pos  r2.Point
	Vel  r2.Point
	Acc  r2.Point
	Jerk r2.Point
}

// Evaluate returns the trajectory state at global time t for the optimized coefficients.
func (s *Sequence) Evaluate(coeffs []float64, startPos, startVel r2.Point, t float64) (State, error) {
	if len(coeffs) != s.OptCoeffCount() {
		return State{}, errors.Errorf("expected %d coefficients, got %d", s.OptCoeffCount(), len(coeffs))
	}
	sp, local := s.Locate(t)
	tt := utils.CacheExponents(local, 5)

	var out [4][NumDims]float64
	p0 := [NumDims]float64{startPos.X, startPos.Y}
	v0 := [NumDims]float64{startVel.X, startVel.Y}
	for _, dim := range Dims {
		a := coeffs[VarIndex(sp.ID, dim, A)]
		b := coeffs[VarIndex(sp.ID, dim, B)]
		c := coeffs[VarIndex(sp.ID, dim, C)]
		d := coeffs[VarIndex(sp.ID, dim, D)]
		e := s.VelocityDependency(sp.ID, dim, v0[dim]).Eval(coeffs)
		f := s.PositionDependency(sp.ID, dim, v0[dim], p0[dim]).Eval(coeffs)

		out[0][dim] = a*tt[5] + b*tt[4] + c*tt[3] + d*tt[2] + e*tt[1] + f
		out[1][dim] = 5*a*tt[4] + 4*b*tt[3] + 3*c*tt[2] + 2*d*tt[1] + e
		out[2][dim] = 20*a*tt[3] + 12*b*tt[2] + 6*c*tt[1] + 2*d
		out[3][dim] = 60*a*tt[2] + 24*b*tt[1] + 6*c
	}
	return State{
		Pos:  r2.Point{X: out[0][X], Y: out[0][Y]},
		Vel:  r2.Point{X: out[1][X], Y: out[1][Y]},
		Acc:  r2.Point{X: out[2][X], Y: out[2][Y]},
		Jerk: r2.Point{X: out[3][X], Y: out[3][Y]},
	}, nil
}

// String prints a table of the splines with their timing and support type.
func (s *Sequence) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"ID", "Start", "Duration", "Support", "Step"})
	for i, sp := range s.splines {
		support := "3 legs"
		if sp.FourLegSupport {
			support = "4 legs"
		}
		t.AppendRow(table.Row{
			sp.ID,
			fmt.Sprintf("%.3f", s.starts[i]),
			fmt.Sprintf("%.3f", sp.Duration),
			support,
			sp.Step,
		})
	}
	return t.Render()
}

func cacheDuration(t float64) []float64 {
	return utils.CacheExponents(t, 5)
}
