// Package legs names the four legs of a quadruped and the footholds they stand on.
package legs

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// LegID identifies one leg of a quadruped.
type LegID int

// The four legs, left/right front and left/right hind.
const (
	LF LegID = iota
	RF
	LH
	RH
)

// NumLegs is the number of legs of the robot.
const NumLegs = 4

// IDs lists all legs in index order.
var IDs = [NumLegs]LegID{LF, RF, LH, RH}

func (id LegID) String() string {
	switch id {
	case LF:
		return "LF"
	case RF:
		return "RF"
	case LH:
		return "LH"
	case RH:
		return "RH"
	}
	return fmt.Sprintf("LegID(%d)", int(id))
}

// Valid returns whether id names one of the four legs.
func (id LegID) Valid() bool {
	return id >= LF && id <= RH
}

// IsFront returns true for LF and RF.
func (id LegID) IsFront() bool {
	return id == LF || id == RF
}

// IsLeft returns true for LF and LH.
func (id LegID) IsLeft() bool {
	return id == LF || id == LH
}

// Diagonal returns the leg diagonally opposite to id.
func (id LegID) Diagonal() LegID {
	switch id {
	case LF:
		return RH
	case RF:
		return LH
	case LH:
		return RF
	default:
		return LF
	}
}

// ParseLegID converts a leg name such as "LF" back into its LegID.
func ParseLegID(name string) (LegID, error) {
	for _, id := range IDs {
		if id.String() == name {
			return id, nil
		}
	}
	return 0, errors.Errorf("unknown leg %q", name)
}

// MarshalText implements encoding.TextMarshaler so legs appear by name in json.
func (id LegID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, errors.Errorf("invalid leg id %d", int(id))
	}
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *LegID) UnmarshalText(text []byte) error {
	parsed, err := ParseLegID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Foothold is a position on the ground touched by a leg.
type Foothold struct {
	Leg LegID     `json:"leg"`
	Pos r3.Vector `json:"pos"`
}

func (f Foothold) String() string {
	return fmt.Sprintf("%v(%.3f, %.3f, %.3f)", f.Leg, f.Pos.X, f.Pos.Y, f.Pos.Z)
}

// Stance holds the foothold of every leg, indexed by LegID.
type Stance [NumLegs]r3.Vector

// Foothold returns the foothold of the given leg in this stance.
func (s Stance) Foothold(id LegID) Foothold {
	return Foothold{Leg: id, Pos: s[id]}
}

// Apply returns the stance after the foothold's leg has been placed at the foothold.
func (s Stance) Apply(f Foothold) Stance {
	s[f.Leg] = f.Pos
	return s
}

// Centroid returns the mean horizontal position of the four feet.
func (s Stance) Centroid() (x, y float64) {
	xs := make([]float64, 0, NumLegs)
	ys := make([]float64, 0, NumLegs)
	for _, p := range s {
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
	}
	// stats.Mean only fails on empty input.
	x, _ = stats.Mean(xs)
	y, _ = stats.Mean(ys)
	return x, y
}
