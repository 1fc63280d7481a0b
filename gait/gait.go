// Package gait reads walking requests from json files and turns them into formulation inputs.
package gait

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/mohakhalili/towr/legs"
	"github.com/mohakhalili/towr/spline"
	"github.com/mohakhalili/towr/supportpolygon"
	"github.com/mohakhalili/towr/zmp"
)

// Walk generates steps by moving the legs in Order by Stride, Cycles times over.
type Walk struct {
	Order  []legs.LegID `json:"order"`
	Stride r2.Point     `json:"stride"`
	Cycles int          `json:"cycles"`
}

// Config is a gait request as stored on disk. Either Steps or Walk describes the footholds.
type Config struct {
	Timing        *spline.Timing           `json:"timing,omitempty"`
	StartPosition *r2.Point                `json:"start_position,omitempty"`
	StartVelocity r2.Point                 `json:"start_velocity"`
	Stance        map[legs.LegID]r3.Vector `json:"stance"`
	Steps         []legs.Foothold          `json:"steps,omitempty"`
	Walk          *Walk                    `json:"walk,omitempty"`
	Weights       zmp.Weights              `json:"weights"`
	Margins       *supportpolygon.Margins  `json:"margins,omitempty"`
	RobotHeight   float64                  `json:"robot_height"`
	Options       map[string]interface{}   `json:"options,omitempty"`
}

// Read reads a gait config from the given file, expanding environment variables.
func Read(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	cfg, err := FromReader(bytes.NewReader(buf))
	if err != nil {
		return nil, errors.Wrapf(err, "reading gait %q", filePath)
	}
	return cfg, nil
}

// FromReader decodes and validates a gait config.
func FromReader(r io.Reader) (*Config, error) {
	var cfg Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode gait from json")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the config describes a complete request.
func (c *Config) Validate() error {
	for _, id := range legs.IDs {
		if _, ok := c.Stance[id]; !ok {
			return errors.Errorf("stance is missing leg %v", id)
		}
	}
	if len(c.Steps) > 0 && c.Walk != nil {
		return errors.New("only one of steps and walk may be given")
	}
	if len(c.Steps) == 0 && c.Walk == nil {
		return errors.New("one of steps or walk is required")
	}
	if c.Walk != nil {
		if len(c.Walk.Order) == 0 {
			return errors.New("walk needs a leg order")
		}
		if c.Walk.Cycles < 1 {
			return errors.Errorf("walk needs at least one cycle, got %d", c.Walk.Cycles)
		}
	}
	if !(c.RobotHeight > 0) {
		return errors.Errorf("robot_height must be positive, got %v", c.RobotHeight)
	}
	return c.timing().Validate()
}

func (c *Config) timing() spline.Timing {
	if c.Timing == nil {
		return spline.DefaultTiming()
	}
	return *c.Timing
}

// StartStance returns the configured stance indexed by leg.
func (c *Config) StartStance() legs.Stance {
	var stance legs.Stance
	for id, pos := range c.Stance {
		stance[id] = pos
	}
	return stance
}

// Footholds returns the explicit steps, or the steps generated by the walk.
func (c *Config) Footholds() []legs.Foothold {
	if c.Walk == nil {
		return append([]legs.Foothold(nil), c.Steps...)
	}
	stance := c.StartStance()
	var steps []legs.Foothold
	for cycle := 0; cycle < c.Walk.Cycles; cycle++ {
		for _, id := range c.Walk.Order {
			pos := stance[id].Add(r3.Vector{X: c.Walk.Stride.X, Y: c.Walk.Stride.Y})
			step := legs.Foothold{Leg: id, Pos: pos}
			stance = stance.Apply(step)
			steps = append(steps, step)
		}
	}
	return steps
}

// Request builds the spline sequence and formulation request of the gait, along with the
// optimizer options.
func (c *Config) Request() (*zmp.Request, *zmp.Options, error) {
	steps := c.Footholds()
	seq, err := spline.ConstructSequence(lo.Map(steps, func(f legs.Foothold, _ int) legs.LegID { return f.Leg }), c.timing())
	if err != nil {
		return nil, nil, err
	}
	opts, err := zmp.NewOptionsFromExtra(c.Options)
	if err != nil {
		return nil, nil, err
	}
	stance := c.StartStance()
	var start r2.Point
	if c.StartPosition != nil {
		start = *c.StartPosition
	} else {
		x, y := stance.Centroid()
		start = r2.Point{X: x, Y: y}
	}
	margins := supportpolygon.DefaultMargins()
	if c.Margins != nil {
		margins = *c.Margins
	}
	return &zmp.Request{
		Splines:       seq.Splines(),
		StartPosition: start,
		StartVelocity: c.StartVelocity,
		StartStance:   stance,
		Steps:         steps,
		Weights:       c.Weights,
		Margins:       margins,
		RobotHeight:   c.RobotHeight,
	}, opts, nil
}

// Schema describes the gait file format.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
