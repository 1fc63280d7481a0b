package zmp

import (
	"math"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"github.com/mohakhalili/towr/nlp"
	"github.com/mohakhalili/towr/qp"
	"github.com/mohakhalili/towr/utils"
)

// default values for formulation and solver options.
const (
	// spacing of the ZMP constraint nodes inside a spline, in seconds.
	defaultSamplingInterval = 0.1

	// gravitational acceleration in m/s².
	defaultGravity = 9.81

	// cost below which a QP solution is rejected. Zero disables the check.
	defaultMinCost = 0.

	// added to the diagonal of the cost matrix before factorizing it.
	defaultRegularization = 1e-8

	// how far the nonlinear solver may move each foothold along x and y, in meters.
	defaultFootholdTolerance = 0.05

	// step used for finite differences with respect to footholds, in meters.
	defaultFootholdStep = 1e-6
)

// VerticalAccelerationFunc returns the vertical acceleration of the center of mass at global
// time t. It enters the ZMP model as h/(g + z̈).
type VerticalAccelerationFunc func(t float64) float64

// Options configure formulation and solving.
type Options struct {
	// Interval between ZMP constraint nodes.
	SamplingInterval float64 `json:"sampling_interval"`

	Gravity float64 `json:"gravity"`

	// A QP solution with a cost below this is treated as degenerate. Zero disables the check.
	MinCost float64 `json:"min_cost"`

	Regularization float64 `json:"regularization"`

	// Build the cost, equality and inequality systems concurrently.
	Parallel bool `json:"parallel"`

	FootholdTolerance float64 `json:"foothold_tolerance"`

	NLP nlp.Options `json:"nlp"`

	// VerticalAcceleration defaults to a constant zero.
	VerticalAcceleration VerticalAccelerationFunc `json:"-"`
}

// NewDefaultOptions returns the default options.
func NewDefaultOptions() *Options {
	return &Options{
		SamplingInterval:  defaultSamplingInterval,
		Gravity:           defaultGravity,
		MinCost:           defaultMinCost,
		Regularization:    defaultRegularization,
		FootholdTolerance: defaultFootholdTolerance,
		NLP:               nlp.DefaultOptions(),
	}
}

// NewOptionsFromExtra overlays the given attribute map onto the default options. Keys are the
// json names of the fields.
func NewOptionsFromExtra(extra map[string]interface{}) (*Options, error) {
	opts := NewDefaultOptions()
	if len(extra) == 0 {
		return opts, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error creating options decoder")
	}
	if err := decoder.Decode(extra); err != nil {
		return nil, errors.Wrap(err, "error decoding options")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Validate checks that the options describe a usable formulation.
func (o *Options) Validate() error {
	if !(o.SamplingInterval > 0) {
		return errors.Errorf("sampling interval must be positive, got %v", o.SamplingInterval)
	}
	if !(o.Gravity > 0) {
		return errors.Errorf("gravity must be positive, got %v", o.Gravity)
	}
	if o.MinCost < 0 || math.IsNaN(o.MinCost) {
		return errors.Errorf("min cost must not be negative, got %v", o.MinCost)
	}
	if o.Regularization < 0 {
		return errors.Errorf("regularization must not be negative, got %v", o.Regularization)
	}
	if o.FootholdTolerance < 0 {
		return errors.Errorf("foothold tolerance must not be negative, got %v", o.FootholdTolerance)
	}
	return nil
}

func (o *Options) verticalAcceleration(t float64) float64 {
	if o.VerticalAcceleration == nil {
		return 0
	}
	return o.VerticalAcceleration(t)
}

// effectiveGravity returns g + z̈(t), the denominator of the ZMP height ratio. It must be
// positive and finite for the ZMP to exist.
func (o *Options) effectiveGravity(t float64) (float64, error) {
	g := o.Gravity + o.verticalAcceleration(t)
	if !(g > 0) || !utils.IsFinite(g) {
		return 0, NewInvalidGaitRequestError(
			"gravity plus vertical acceleration must be positive and finite, got %v at t=%v", g, t)
	}
	return g, nil
}

func (o *Options) qpSettings() qp.Settings {
	s := qp.DefaultSettings()
	s.Regularization = o.Regularization
	return s
}
