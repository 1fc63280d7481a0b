//go:build !windows && !no_cgo

package zmp

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestSolveNLPToyProblem(t *testing.T) {
	o := newTestOptimizer(t, nil)
	f := formulate(t, toyRequest(), nil)
	qpSol, err := o.SolveQP(context.Background(), f)
	test.That(t, err, test.ShouldBeNil)

	sol, err := o.SolveNLP(context.Background(), f, qpSol.Coeffs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sol.Coeffs, test.ShouldHaveLength, len(qpSol.Coeffs))
	test.That(t, sol.Footholds, test.ShouldHaveLength, 1)
	test.That(t, sol.Objective, test.ShouldAlmostEqual, 0, 1e-6)

	step := f.Request.Steps[0]
	test.That(t, math.Abs(sol.Footholds[0].Pos.X-step.Pos.X), test.ShouldBeLessThanOrEqualTo, 0.05+1e-9)
	test.That(t, math.Abs(sol.Footholds[0].Pos.Y-step.Pos.Y), test.ShouldBeLessThanOrEqualTo, 0.05+1e-9)
	test.That(t, sol.FinalStance[sol.Footholds[0].Leg], test.ShouldResemble, sol.Footholds[0].Pos)
}

func TestSolveNLPWrongGuess(t *testing.T) {
	f := formulate(t, toyRequest(), nil)
	_, err := newTestOptimizer(t, nil).SolveNLP(context.Background(), f, []float64{1})
	test.That(t, errors.Is(err, ErrPreconditionViolation), test.ShouldBeTrue)
}
