package nlp

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

// quadratic is min (x0-1)² + (x1-2)² s.t. x0 + x1 = 1, x0 ≥ 0.5.
type quadratic struct{}

func (quadratic) Dimension() int { return 2 }

func (quadratic) Bounds() ([]float64, []float64) {
	return []float64{-10, -10}, []float64{10, 10}
}

func (quadratic) Objective(x, grad []float64) float64 {
	if len(grad) > 0 {
		grad[0] = 2 * (x[0] - 1)
		grad[1] = 2 * (x[1] - 2)
	}
	return math.Pow(x[0]-1, 2) + math.Pow(x[1]-2, 2)
}

func (quadratic) EqualityCount() int { return 1 }

func (quadratic) Equalities(result, x, jac []float64) {
	result[0] = x[0] + x[1] - 1
	if len(jac) > 0 {
		jac[0], jac[1] = 1, 1
	}
}

func (quadratic) InequalityCount() int { return 1 }

func (quadratic) Inequalities(result, x, jac []float64) {
	result[0] = x[0] - 0.5
	if len(jac) > 0 {
		jac[0], jac[1] = 1, 0
	}
}

func TestJacobianOfObjective(t *testing.T) {
	x := []float64{0.3, -0.7}
	numeric := make([]float64, 2)
	Jacobian(func(out, x []float64) { out[0] = quadratic{}.Objective(x, nil) }, x, 1, 1e-6, []int{0, 1}, numeric)
	analytic := make([]float64, 2)
	quadratic{}.Objective(x, analytic)
	test.That(t, numeric[0], test.ShouldAlmostEqual, analytic[0], 1e-6)
	test.That(t, numeric[1], test.ShouldAlmostEqual, analytic[1], 1e-6)
	test.That(t, x, test.ShouldResemble, []float64{0.3, -0.7})
}

func TestJacobianColumns(t *testing.T) {
	fn := func(out, x []float64) {
		out[0] = x[0] * x[1]
		out[1] = x[1] * x[1]
	}
	x := []float64{2, 3}
	jac := make([]float64, 4)
	Jacobian(fn, x, 2, 1e-5, []int{1}, jac)
	test.That(t, jac[0], test.ShouldEqual, 0.)
	test.That(t, jac[1], test.ShouldAlmostEqual, 2, 1e-6)
	test.That(t, jac[2], test.ShouldEqual, 0.)
	test.That(t, jac[3], test.ShouldAlmostEqual, 6, 1e-6)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{MaxEvaluations: 10}.withDefaults()
	test.That(t, o.MaxEvaluations, test.ShouldEqual, 10)
	test.That(t, o.Tolerance, test.ShouldEqual, defaultTolerance)
	test.That(t, o.ConstraintTolerance, test.ShouldEqual, defaultConstraintTolerance)
}

func TestCheckProblem(t *testing.T) {
	test.That(t, checkProblem(quadratic{}, []float64{0, 0}), test.ShouldBeNil)
	err := checkProblem(quadratic{}, []float64{0})
	test.That(t, errors.Is(err, ErrInitialization), test.ShouldBeTrue)
	err = checkProblem(nil, nil)
	test.That(t, errors.Is(err, ErrInitialization), test.ShouldBeTrue)
}

func TestStoppedEarly(t *testing.T) {
	test.That(t, stoppedEarly("MAXEVAL_REACHED"), test.ShouldBeTrue)
	test.That(t, stoppedEarly("MAXTIME_REACHED"), test.ShouldBeTrue)
	for _, status := range []string{"SUCCESS", "FTOL_REACHED", "XTOL_REACHED", "STOPVAL_REACHED"} {
		test.That(t, stoppedEarly(status), test.ShouldBeFalse)
	}
}
