// Package zmp formulates the center of mass trajectory of a walking quadruped as a quadratic
// program whose constraints keep the zero moment point inside the support triangles, and solves
// it either as that QP or as a nonlinear program that may also move the footholds.
package zmp

import (
	"context"
	"time"

	"github.com/golang/geo/r2"

	"github.com/mohakhalili/towr/legs"
	"github.com/mohakhalili/towr/logging"
	"github.com/mohakhalili/towr/spline"
	"github.com/mohakhalili/towr/supportpolygon"
	"github.com/mohakhalili/towr/utils"
)

// Formulation holds every system built for one request. It is not modified after Formulate
// returns.
type Formulation struct {
	Request   Request
	Sequence  *spline.Sequence
	Triangles []supportpolygon.Triangle
	// FinalStance is the stance after the last step. Its centroid is the end position target.
	FinalStance legs.Stance
	EndPosition r2.Point
	Lines       []SampledLine

	Cost       MatVec
	Equality   MatVec
	Inequality MatVec
	ZMP        ZMPMaps

	opts *Options
}

// Optimizer builds and solves formulations.
type Optimizer struct {
	logger logging.Logger
	opts   *Options
}

// NewOptimizer returns an optimizer with the given options, or the defaults if opts is nil.
func NewOptimizer(logger logging.Logger, opts *Options) (*Optimizer, error) {
	if opts == nil {
		opts = NewDefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Optimizer{logger: logger, opts: opts}, nil
}

// Formulate builds the cost, equality and inequality systems for the request.
func (o *Optimizer) Formulate(ctx context.Context, req *Request) (*Formulation, error) {
	start := time.Now()
	seq, err := req.validate()
	if err != nil {
		return nil, err
	}
	triangles, finalStance, err := supportpolygon.FromFootholds(req.StartStance, req.Steps, req.Margins)
	if err != nil {
		return nil, NewInvalidGaitRequestError("%v", err)
	}
	lines, err := LinesForConstraints(seq, triangles, o.opts.SamplingInterval)
	if err != nil {
		return nil, err
	}
	endX, endY := finalStance.Centroid()

	f := &Formulation{
		Request:     *req,
		Sequence:    seq,
		Triangles:   triangles,
		FinalStance: finalStance,
		EndPosition: r2.Point{X: endX, Y: endY},
		Lines:       lines,
		opts:        o.opts,
	}
	f.Request.Splines = seq.Splines()
	f.Request.Steps = append([]legs.Foothold(nil), req.Steps...)

	buildCost := func(context.Context) error {
		t := time.Now()
		f.Cost = CostFunction(seq, req.Weights)
		o.logger.Debugw("built cost function", "duration", time.Since(t), "variables", seq.OptCoeffCount())
		return nil
	}
	buildEquality := func(context.Context) error {
		t := time.Now()
		f.Equality = EqualityConstraints(seq, req, f.EndPosition)
		o.logger.Debugw("built equality constraints", "duration", time.Since(t), "rows", f.Equality.Cols())
		return nil
	}
	buildInequality := func(context.Context) error {
		t := time.Now()
		maps, err := ZMPMapsForLines(seq, lines, req, o.opts)
		if err != nil {
			return err
		}
		f.ZMP = maps
		f.Inequality = InequalityConstraints(seq, lines, f.ZMP)
		o.logger.Debugw("built inequality constraints", "duration", time.Since(t), "rows", f.Inequality.Cols())
		return nil
	}
	builders := []utils.SimpleFunc{buildCost, buildEquality, buildInequality}

	if o.opts.Parallel {
		if _, err := utils.RunInParallel(ctx, builders); err != nil {
			return nil, err
		}
	} else {
		for _, build := range builders {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := build(ctx); err != nil {
				return nil, err
			}
		}
	}
	o.logger.Debugw("formulated problem",
		"duration", time.Since(start),
		"splines", seq.Len(),
		"steps", len(req.Steps),
		"equalities", f.Equality.Cols(),
		"inequalities", f.Inequality.Cols(),
	)
	return f, nil
}

func (f *Formulation) check() error {
	if f == nil || f.Sequence == nil || f.Cost.M == nil {
		return NewNotFormulatedError()
	}
	return nil
}
