package spline

import (
	"github.com/pkg/errors"

	"github.com/mohakhalili/towr/legs"
)

// Timing holds the phase durations used to lay out a spline sequence for a step sequence.
type Timing struct {
	// StanceInitial is the four-leg-support phase before the first step. Zero skips it.
	StanceInitial float64 `json:"t_stance_initial"`
	// Swing is the duration of every step.
	Swing float64 `json:"t_swing"`
	// Stance is the four-leg-support phase inserted between steps whose support triangles do
	// not overlap. Zero skips it.
	Stance float64 `json:"t_stance"`
	// StanceFinal is the four-leg-support phase after the last step. Zero skips it.
	StanceFinal float64 `json:"t_stance_final"`
	// SplinesPerStep splits each swing phase into this many equally long splines.
	SplinesPerStep int `json:"splines_per_step"`
}

// DefaultTiming returns the phase durations of a slow walking gait.
func DefaultTiming() Timing {
	return Timing{
		StanceInitial:  0.8,
		Swing:          0.6,
		Stance:         0.2,
		StanceFinal:    0.8,
		SplinesPerStep: 1,
	}
}

// Validate checks that every duration can produce a valid spline.
func (t Timing) Validate() error {
	if t.StanceInitial < 0 || t.Stance < 0 || t.StanceFinal < 0 {
		return errors.New("stance durations must not be negative")
	}
	if !(t.Swing > 0) {
		return errors.Errorf("swing duration must be positive, got %v", t.Swing)
	}
	if t.SplinesPerStep < 1 {
		return errors.Errorf("need at least one spline per step, got %d", t.SplinesPerStep)
	}
	return nil
}

// ConstructSequence lays out the splines for walking the given swing legs in order: an optional
// initial stance, the swing splines of every step, a four-leg-support phase between steps whose
// support triangles are disjoint, and an optional final stance.
func ConstructSequence(steps []legs.LegID, timing Timing) (*Sequence, error) {
	if err := timing.Validate(); err != nil {
		return nil, err
	}
	var splines []Spline
	add := func(duration float64, fourLeg bool, step int) {
		splines = append(splines, Spline{ID: len(splines), Duration: duration, FourLegSupport: fourLeg, Step: step})
	}

	if timing.StanceInitial > 0 {
		add(timing.StanceInitial, true, 0)
	}
	for i, leg := range steps {
		if !leg.Valid() {
			return nil, errors.Errorf("step %d has invalid leg %v", i, leg)
		}
		if i > 0 && timing.Stance > 0 && disjointTriangles(steps[i-1], leg) {
			add(timing.Stance, true, i)
		}
		for n := 0; n < timing.SplinesPerStep; n++ {
			add(timing.Swing/float64(timing.SplinesPerStep), false, i)
		}
	}
	if timing.StanceFinal > 0 {
		last := 0
		if len(steps) > 0 {
			last = len(steps) - 1
		}
		add(timing.StanceFinal, true, last)
	}
	return NewSequence(splines)
}

// disjointTriangles reports whether swinging prev and then next leaves two support triangles
// that only share a diagonal, so the ZMP has to cross it during four-leg support.
func disjointTriangles(prev, next legs.LegID) bool {
	return prev.Diagonal() == next
}
