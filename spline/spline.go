// Package spline describes the center-of-mass trajectory as a sequence of quintic polynomials,
// one per support phase:
//
//	p(t) = a·t⁵ + b·t⁴ + c·t³ + d·t² + e·t + f
//
// Only a, b, c and d are optimized. e and f of every spline are eliminated by requiring
// position and velocity continuity with the previous spline (or the start state for the first
// one), which makes them linear combinations of the free coefficients of all earlier splines.
package spline

import (
	"fmt"
)

// Dim is a planar axis of the trajectory.
type Dim int

// The two planar axes.
const (
	X Dim = iota
	Y
)

// NumDims is the number of optimized axes.
const NumDims = 2

// Dims lists the optimized axes in layout order.
var Dims = [NumDims]Dim{X, Y}

func (d Dim) String() string {
	switch d {
	case X:
		return "x"
	case Y:
		return "y"
	}
	return fmt.Sprintf("Dim(%d)", int(d))
}

// Coefficient names one polynomial coefficient, highest order first.
type Coefficient int

// Polynomial coefficients. A through D are free, E and F are eliminated.
const (
	A Coefficient = iota
	B
	C
	D
	E
	F
)

// NumFreeCoeffs is the number of optimized coefficients per spline and axis.
const NumFreeCoeffs = 4

// FreeCoeffs lists the optimized coefficients in layout order.
var FreeCoeffs = [NumFreeCoeffs]Coefficient{A, B, C, D}

func (c Coefficient) String() string {
	if c < A || c > F {
		return fmt.Sprintf("Coefficient(%d)", int(c))
	}
	return string(rune('a' + int(c)))
}

// VarIndex maps a free coefficient of one spline and axis to its offset in the optimization
// vector. The layout is [ax0 bx0 cx0 dx0 ay0 by0 cy0 dy0 ax1 ...]. Every builder must go through
// this function. It panics on a negative spline id, an unknown axis, or an eliminated
// coefficient.
func VarIndex(id int, dim Dim, coeff Coefficient) int {
	if id < 0 || dim < X || dim > Y || coeff < A || coeff > D {
		panic(fmt.Sprintf("no optimization variable for spline %d, axis %v, coefficient %v", id, dim, coeff))
	}
	return id*NumFreeCoeffs*NumDims + int(dim)*NumFreeCoeffs + int(coeff)
}

// Spline is one polynomial piece of the trajectory covering a single support phase.
type Spline struct {
	ID       int     `json:"id"`
	Duration float64 `json:"duration"`
	// FourLegSupport marks phases with all feet on the ground. The ZMP is not constrained in
	// these phases.
	FourLegSupport bool `json:"four_leg_support"`
	// Step is the index of the step, and therefore of the support triangle, this spline belongs to.
	Step int `json:"step"`
}

func (s Spline) String() string {
	kind := "step"
	if s.FourLegSupport {
		kind = "4ls"
	}
	return fmt.Sprintf("spline %d (%s, step %d, %.3fs)", s.ID, kind, s.Step, s.Duration)
}
