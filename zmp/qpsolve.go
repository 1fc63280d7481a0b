package zmp

import (
	"context"
	"time"

	"github.com/mohakhalili/towr/qp"
	"github.com/mohakhalili/towr/utils"
)

// QPSolution is the result of solving a formulation as a quadratic program.
type QPSolution struct {
	Coeffs     []float64
	Cost       float64
	Status     qp.Status
	Iterations int
	// ActiveInequalities lists the inequality rows that hold with equality at the solution.
	ActiveInequalities []int
}

// SolveQP solves the formulation with the dense active-set QP solver.
func (o *Optimizer) SolveQP(ctx context.Context, f *Formulation) (*QPSolution, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := qp.SolveWithSettings(&qp.Problem{
		G:   f.Cost.M,
		CE:  denseOrNil(f.Equality),
		CE0: f.Equality.Values(),
		CI:  denseOrNil(f.Inequality),
		CI0: f.Inequality.Values(),
	}, o.opts.qpSettings())
	if err != nil {
		return nil, NewDegenerateSolutionError("%v", err)
	}
	o.logger.Infow("solved qp",
		"duration", time.Since(start),
		"status", res.Status,
		"cost", res.Cost,
		"iterations", res.Iterations,
		"active", len(res.Active),
	)
	switch {
	case res.Status != qp.StatusOptimal:
		return nil, NewDegenerateSolutionError("qp solver stopped with status %v", res.Status)
	case !utils.IsFinite(res.Cost):
		return nil, NewDegenerateSolutionError("qp cost %v is not finite", res.Cost)
	case o.opts.MinCost > 0 && res.Cost < o.opts.MinCost:
		return nil, NewDegenerateSolutionError("qp cost %v is below the minimum %v", res.Cost, o.opts.MinCost)
	}
	return &QPSolution{
		Coeffs:             res.X,
		Cost:               res.Cost,
		Status:             res.Status,
		Iterations:         res.Iterations,
		ActiveInequalities: res.Active,
	}, nil
}
