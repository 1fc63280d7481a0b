package zmp

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/mohakhalili/towr/logging"
	"github.com/mohakhalili/towr/spline"
)

func TestFormulateNoSplines(t *testing.T) {
	o := newTestOptimizer(t, nil)
	req := toyRequest()
	req.Splines = nil
	f, err := o.Formulate(context.Background(), req)
	test.That(t, f, test.ShouldBeNil)
	test.That(t, errors.Is(err, ErrPreconditionViolation), test.ShouldBeTrue)

	_, err = o.Formulate(context.Background(), nil)
	test.That(t, errors.Is(err, ErrPreconditionViolation), test.ShouldBeTrue)
}

func TestFormulateInvalidRequest(t *testing.T) {
	o := newTestOptimizer(t, nil)

	req := toyRequest()
	req.Splines[0].Duration = 0
	_, err := o.Formulate(context.Background(), req)
	test.That(t, errors.Is(err, ErrInvalidGaitRequest), test.ShouldBeTrue)

	req = toyRequest()
	req.Splines = append(req.Splines, spline.Spline{ID: 1, Duration: 0.5, Step: 1})
	_, err = o.Formulate(context.Background(), req)
	test.That(t, errors.Is(err, ErrInvalidGaitRequest), test.ShouldBeTrue)

	req = toyRequest()
	req.Splines[0].ID = 3
	_, err = o.Formulate(context.Background(), req)
	test.That(t, errors.Is(err, ErrInvalidGaitRequest), test.ShouldBeTrue)

	req = toyRequest()
	req.RobotHeight = 0
	_, err = o.Formulate(context.Background(), req)
	test.That(t, errors.Is(err, ErrInvalidGaitRequest), test.ShouldBeTrue)

	req = toyRequest()
	req.Weights.X = -1
	_, err = o.Formulate(context.Background(), req)
	test.That(t, errors.Is(err, ErrInvalidGaitRequest), test.ShouldBeTrue)
}

func TestFormulateIdempotent(t *testing.T) {
	req := walkRequest(t)
	f0 := formulate(t, req, nil)
	f1 := formulate(t, req, nil)
	test.That(t, f0.Cost.Equal(f1.Cost), test.ShouldBeTrue)
	test.That(t, f0.Equality.Equal(f1.Equality), test.ShouldBeTrue)
	test.That(t, f0.Inequality.Equal(f1.Inequality), test.ShouldBeTrue)
	test.That(t, f0.Lines, test.ShouldResemble, f1.Lines)
}

func TestFormulateParallel(t *testing.T) {
	req := walkRequest(t)
	opts := NewDefaultOptions()
	opts.Parallel = true
	parallel := formulate(t, req, opts)
	sequential := formulate(t, req, nil)
	test.That(t, parallel.Cost.Equal(sequential.Cost), test.ShouldBeTrue)
	test.That(t, parallel.Equality.Equal(sequential.Equality), test.ShouldBeTrue)
	test.That(t, parallel.Inequality.Equal(sequential.Inequality), test.ShouldBeTrue)
}

func TestFormulateDoesNotAliasRequest(t *testing.T) {
	req := walkRequest(t)
	f := formulate(t, req, nil)
	req.Steps[0].Pos.X = 10
	req.Splines[0].Duration = 10
	test.That(t, f.Request.Steps[0].Pos.X, test.ShouldNotEqual, 10.)
	test.That(t, f.Request.Splines[0].Duration, test.ShouldNotEqual, 10.)
}

func TestFormulateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestOptimizer(t, nil).Formulate(ctx, walkRequest(t))
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestFormulateLogsTiming(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	o, err := NewOptimizer(logger, nil)
	test.That(t, err, test.ShouldBeNil)
	_, err = o.Formulate(context.Background(), walkRequest(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("built cost function").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("formulated problem").Len(), test.ShouldEqual, 1)
}

func TestSolveBeforeFormulate(t *testing.T) {
	o := newTestOptimizer(t, nil)
	_, err := o.SolveQP(context.Background(), nil)
	test.That(t, errors.Is(err, ErrPreconditionViolation), test.ShouldBeTrue)
	_, err = o.SolveQP(context.Background(), &Formulation{})
	test.That(t, errors.Is(err, ErrPreconditionViolation), test.ShouldBeTrue)
	_, err = o.SolveNLP(context.Background(), nil, nil)
	test.That(t, errors.Is(err, ErrPreconditionViolation), test.ShouldBeTrue)
}

func TestOptions(t *testing.T) {
	opts, err := NewOptionsFromExtra(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.SamplingInterval, test.ShouldEqual, defaultSamplingInterval)
	test.That(t, opts.Gravity, test.ShouldEqual, defaultGravity)

	opts, err = NewOptionsFromExtra(map[string]interface{}{
		"sampling_interval": 0.05,
		"min_cost":          "0.001",
		"parallel":          true,
		"nlp":               map[string]interface{}{"max_evaluations": 50},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.SamplingInterval, test.ShouldEqual, 0.05)
	test.That(t, opts.MinCost, test.ShouldEqual, 0.001)
	test.That(t, opts.Parallel, test.ShouldBeTrue)
	test.That(t, opts.NLP.MaxEvaluations, test.ShouldEqual, 50)
	test.That(t, opts.Gravity, test.ShouldEqual, defaultGravity)

	_, err = NewOptionsFromExtra(map[string]interface{}{"sampling_interval": -1})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewOptionsFromExtra(map[string]interface{}{"no_such_option": 1})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewOptimizer(logging.NewTestLogger(t), &Options{})
	test.That(t, err, test.ShouldNotBeNil)
}
