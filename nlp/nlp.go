// Package nlp drives a gradient based nonlinear solver over problems with linear or nonlinear
// equality and inequality constraints.
package nlp

import (
	"github.com/pkg/errors"
)

const (
	defaultMaxEvaluations      = 4000
	defaultTolerance           = 1e-8
	defaultConstraintTolerance = 1e-8
)

// ErrInitialization is returned when the solver cannot be created or configured.
var ErrInitialization = errors.New("nonlinear solver initialization failed")

// Problem describes a nonlinear program
//
//	min f(x)  s.t.  h(x) = 0,  g(x) ≥ 0,  lower ≤ x ≤ upper.
//
// Jacobians are row-major with one row per constraint. Gradient and Jacobian slices are empty
// when the solver does not need them.
type Problem interface {
	Dimension() int
	Bounds() (lower, upper []float64)
	Objective(x, grad []float64) float64
	EqualityCount() int
	Equalities(result, x, jac []float64)
	InequalityCount() int
	Inequalities(result, x, jac []float64)
}

// Options configure a solve.
type Options struct {
	MaxEvaluations      int     `json:"max_evaluations"`
	Tolerance           float64 `json:"tolerance"`
	ConstraintTolerance float64 `json:"constraint_tolerance"`
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		MaxEvaluations:      defaultMaxEvaluations,
		Tolerance:           defaultTolerance,
		ConstraintTolerance: defaultConstraintTolerance,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxEvaluations <= 0 {
		o.MaxEvaluations = def.MaxEvaluations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = def.Tolerance
	}
	if o.ConstraintTolerance <= 0 {
		o.ConstraintTolerance = def.ConstraintTolerance
	}
	return o
}

// Result is the outcome of a solve. A run that stopped without converging still reports the
// last point the solver evaluated.
type Result struct {
	X           []float64
	Objective   float64
	Status      string
	Evaluations int
	Converged   bool
}

// stoppedEarly reports whether the solver status names a budget limit rather than a tolerance
// being met. nlopt treats these as successful returns.
func stoppedEarly(status string) bool {
	switch status {
	case "MAXEVAL_REACHED", "MAXTIME_REACHED":
		return true
	}
	return false
}

func checkProblem(p Problem, x0 []float64) error {
	if p == nil {
		return errors.Wrap(ErrInitialization, "no problem given")
	}
	n := p.Dimension()
	if n <= 0 {
		return errors.Wrapf(ErrInitialization, "problem has dimension %d", n)
	}
	if len(x0) != n {
		return errors.Wrapf(ErrInitialization, "initial guess has length %d, want %d", len(x0), n)
	}
	lower, upper := p.Bounds()
	if len(lower) != n || len(upper) != n {
		return errors.Wrapf(ErrInitialization, "bounds have lengths %d and %d, want %d", len(lower), len(upper), n)
	}
	return nil
}
