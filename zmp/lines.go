package zmp

import (
	"github.com/mohakhalili/towr/spline"
	"github.com/mohakhalili/towr/supportpolygon"
	"github.com/mohakhalili/towr/utils"
)

// SampledLine is one support triangle edge that the ZMP must respect at one instant.
type SampledLine struct {
	supportpolygon.Line
	// Spline is the id of the spline the node lies in, Time the time since that spline started.
	Spline int
	Time   float64
	// Step is the index of the support triangle and Edge the index of the line within it.
	Step int
	Edge int
}

// NodeCount returns the number of constraint nodes placed in a spline of the given duration.
func NodeCount(duration, dt float64) int {
	return utils.FloorDiv(duration, dt)
}

// LinesForConstraints places nodes every dt seconds in each spline without four-leg support,
// from the start of the spline up to but excluding floor(T/dt)·dt, and emits the three edge
// lines of the spline's support triangle at every node. Four-leg support splines emit nothing.
// The order of the result defines the order of the inequality rows.
func LinesForConstraints(seq *spline.Sequence, triangles []supportpolygon.Triangle, dt float64) ([]SampledLine, error) {
	var lines []SampledLine
	for _, sp := range seq.Splines() {
		if sp.FourLegSupport {
			continue
		}
		if sp.Step < 0 || sp.Step >= len(triangles) {
			return nil, NewInvalidGaitRequestError("spline %d refers to step %d, have %d support triangles", sp.ID, sp.Step, len(triangles))
		}
		edges := triangles[sp.Step].Lines()
		for i := 0; i < NodeCount(sp.Duration, dt); i++ {
			t := float64(i) * dt
			for e, l := range edges {
				lines = append(lines, SampledLine{Line: l, Spline: sp.ID, Time: t, Step: sp.Step, Edge: e})
			}
		}
	}
	return lines, nil
}
