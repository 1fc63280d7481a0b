// Package supportpolygon builds the support triangles spanned by the three stance feet while the
// fourth leg swings, and expresses their edges as half-plane inequalities.
package supportpolygon

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"github.com/mohakhalili/towr/legs"
)

// EdgesPerTriangle is the number of half-plane lines bounding a support triangle.
const EdgesPerTriangle = 3

// Margins are the minimum distances the ZMP keeps from each kind of support edge.
type Margins struct {
	Front float64 `json:"front"`
	Hind  float64 `json:"hind"`
	Side  float64 `json:"side"`
	Diag  float64 `json:"diag"`
}

// DefaultMargins returns the margins used when none are configured.
func DefaultMargins() Margins {
	return Margins{Front: 0.1, Hind: 0.1, Side: 0.1, Diag: 0.1}
}

// UniformMargins returns margins with the same value on every edge.
func UniformMargins(m float64) Margins {
	return Margins{Front: m, Hind: m, Side: m, Diag: m}
}

// For returns the margin of the edge connecting the two legs.
func (m Margins) For(l0, l1 legs.LegID) float64 {
	switch {
	case l0.IsFront() && l1.IsFront():
		return m.Front
	case !l0.IsFront() && !l1.IsFront():
		return m.Hind
	case l0.IsLeft() == l1.IsLeft():
		return m.Side
	default:
		return m.Diag
	}
}

// Line is the half plane P·x + Q·y + R ≥ Margin. (P, Q) is the unit normal pointing into the
// triangle, so P·x + Q·y + R is the signed distance of (x, y) from the edge.
type Line struct {
	P      float64 `json:"p"`
	Q      float64 `json:"q"`
	R      float64 `json:"r"`
	Margin float64 `json:"margin"`
}

// LineThrough returns the normalized line through from and to whose positive side is on the left
// when walking from from to to.
func LineThrough(from, to r2.Point) Line {
	p := from.Y - to.Y
	q := to.X - from.X
	r := from.X*to.Y - to.X*from.Y
	norm := math.Hypot(p, q)
	return Line{P: p / norm, Q: q / norm, R: r / norm}
}

// Distance returns the signed distance of pt from the line, positive inside.
func (l Line) Distance(pt r2.Point) float64 {
	return l.P*pt.X + l.Q*pt.Y + l.R
}

// Satisfied returns whether pt keeps at least the margin from the line.
func (l Line) Satisfied(pt r2.Point) bool {
	return l.Distance(pt) >= l.Margin
}

// Vertex is one stance foot of a support triangle. Step is the index of the step that placed the
// foot, or -1 if the foot is still on its start foothold.
type Vertex struct {
	legs.Foothold
	Step int
}

// Triangle is the support polygon during one step, with vertices in counter-clockwise order.
type Triangle struct {
	Vertices [EdgesPerTriangle]Vertex
	Margins  Margins
}

// NewTriangle orders the three vertices counter-clockwise. Collinear vertices are rejected.
func NewTriangle(vertices [EdgesPerTriangle]Vertex, margins Margins) (Triangle, error) {
	p0, p1, p2 := xy(vertices[0]), xy(vertices[1]), xy(vertices[2])
	cross := p1.Sub(p0).Cross(p2.Sub(p0))
	if math.Abs(cross) < 1e-12 {
		return Triangle{}, errors.Errorf("support feet %v, %v and %v are collinear", vertices[0], vertices[1], vertices[2])
	}
	if cross < 0 {
		vertices[1], vertices[2] = vertices[2], vertices[1]
	}
	return Triangle{Vertices: vertices, Margins: margins}, nil
}

// Lines returns the three edge lines in vertex order, each with the margin of its edge type.
func (t Triangle) Lines() [EdgesPerTriangle]Line {
	var lines [EdgesPerTriangle]Line
	for i := range lines {
		from := t.Vertices[i]
		to := t.Vertices[(i+1)%EdgesPerTriangle]
		lines[i] = LineThrough(xy(from), xy(to))
		lines[i].Margin = t.Margins.For(from.Leg, to.Leg)
	}
	return lines
}

// Contains returns whether pt lies inside the triangle shrunk by the edge margins.
func (t Triangle) Contains(pt r2.Point) bool {
	for _, l := range t.Lines() {
		if !l.Satisfied(pt) {
			return false
		}
	}
	return true
}

// SwingLeg returns the leg that is not part of the triangle.
func (t Triangle) SwingLeg() legs.LegID {
	var present [legs.NumLegs]bool
	for _, v := range t.Vertices {
		present[v.Leg] = true
	}
	for _, id := range legs.IDs {
		if !present[id] {
			return id
		}
	}
	return legs.LF
}

func (t Triangle) String() string {
	return fmt.Sprintf("triangle[%v %v %v]", t.Vertices[0].Foothold, t.Vertices[1].Foothold, t.Vertices[2].Foothold)
}

// FromFootholds returns the support triangle of every step, taking the stance feet from the start
// stance updated by the steps taken so far, along with the stance after the last step.
func FromFootholds(start legs.Stance, steps []legs.Foothold, margins Margins) ([]Triangle, legs.Stance, error) {
	stance := start
	placedBy := [legs.NumLegs]int{-1, -1, -1, -1}
	triangles := make([]Triangle, 0, len(steps))
	for i, step := range steps {
		if !step.Leg.Valid() {
			return nil, legs.Stance{}, errors.Errorf("step %d has invalid leg %v", i, step.Leg)
		}
		var vertices [EdgesPerTriangle]Vertex
		n := 0
		for _, id := range legs.IDs {
			if id == step.Leg {
				continue
			}
			vertices[n] = Vertex{Foothold: stance.Foothold(id), Step: placedBy[id]}
			n++
		}
		tr, err := NewTriangle(vertices, margins)
		if err != nil {
			return nil, legs.Stance{}, errors.Wrapf(err, "support triangle of step %d", i)
		}
		triangles = append(triangles, tr)
		stance = stance.Apply(step)
		placedBy[step.Leg] = i
	}
	return triangles, stance, nil
}

// Table prints the edge lines of every triangle.
func Table(triangles []Triangle) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Step", "Swing", "Edge", "From", "To", "p", "q", "r", "Margin"})
	for i, tr := range triangles {
		for j, l := range tr.Lines() {
			t.AppendRow(table.Row{
				i,
				tr.SwingLeg(),
				j,
				tr.Vertices[j].Leg,
				tr.Vertices[(j+1)%EdgesPerTriangle].Leg,
				fmt.Sprintf("%.3f", l.P),
				fmt.Sprintf("%.3f", l.Q),
				fmt.Sprintf("%.3f", l.R),
				fmt.Sprintf("%.3f", l.Margin),
			})
		}
	}
	return t.Render()
}

func xy(v Vertex) r2.Point {
	return r2.Point{X: v.Pos.X, Y: v.Pos.Y}
}
