//go:build !windows && !no_cgo

package nlp

import (
	"context"
	"math"

	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/mohakhalili/towr/logging"
)

type optimizeReturn struct {
	solution []float64
	value    float64
	err      error
}

// Solve minimizes the problem with nlopt's SLSQP starting from x0. Inequalities g(x) ≥ 0 are
// handed to nlopt as -g(x) ≤ 0.
func Solve(ctx context.Context, p Problem, x0 []float64, opts Options, logger logging.Logger) (*Result, error) {
	if err := checkProblem(p, x0); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	n := p.Dimension()

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(n))
	if err != nil {
		return nil, errors.Wrapf(ErrInitialization, "nlopt creation error: %v", err)
	}
	defer opt.Destroy()

	evaluations := 0
	last := append([]float64(nil), x0...)
	lastValue := math.Inf(1)
	objective := func(x, grad []float64) float64 {
		evaluations++
		v := p.Objective(x, grad)
		copy(last, x)
		lastValue = v
		return v
	}

	lower, upper := p.Bounds()
	err = multierr.Combine(
		opt.SetLowerBounds(lower),
		opt.SetUpperBounds(upper),
		opt.SetFtolRel(opts.Tolerance),
		opt.SetXtolRel(opts.Tolerance),
		opt.SetMaxEval(opts.MaxEvaluations),
		opt.SetMinObjective(objective),
	)
	if m := p.EqualityCount(); m > 0 {
		err = multierr.Combine(err, opt.AddEqualityMConstraint(p.Equalities, tolerances(m, opts.ConstraintTolerance)))
	}
	if m := p.InequalityCount(); m > 0 {
		negated := func(result, x, jac []float64) {
			p.Inequalities(result, x, jac)
			for i := range result {
				result[i] = -result[i]
			}
			for i := range jac {
				jac[i] = -jac[i]
			}
		}
		err = multierr.Combine(err, opt.AddInequalityMConstraint(negated, tolerances(m, opts.ConstraintTolerance)))
	}
	if err != nil {
		return nil, errors.Wrap(ErrInitialization, err.Error())
	}

	solveChan := make(chan *optimizeReturn, 1)
	utils.PanicCapturingGo(func() {
		solution, value, err := opt.Optimize(append([]float64(nil), x0...))
		solveChan <- &optimizeReturn{solution, value, err}
	})
	var ret *optimizeReturn
	select {
	case <-ctx.Done():
		err := opt.ForceStop()
		<-solveChan
		return nil, multierr.Combine(err, ctx.Err())
	case ret = <-solveChan:
	}

	res := &Result{
		Status:      opt.LastStatus(),
		Evaluations: evaluations,
		Converged:   ret.err == nil && !stoppedEarly(opt.LastStatus()),
	}
	if ret.err != nil {
		res.X = last
		res.Objective = lastValue
	} else {
		res.X = ret.solution
		res.Objective = ret.value
	}
	if !res.Converged {
		logger.Warnw("nonlinear solver stopped without converging", "status", res.Status, "evaluations", evaluations)
		return res, nil
	}
	logger.Debugw("nonlinear solver converged", "status", res.Status, "evaluations", evaluations, "objective", res.Objective)
	return res, nil
}

func tolerances(m int, tol float64) []float64 {
	t := make([]float64, m)
	for i := range t {
		t[i] = tol
	}
	return t
}
