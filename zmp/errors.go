package zmp

import (
	"github.com/pkg/errors"
)

var (
	// ErrPreconditionViolation is returned when formulating without splines or solving without a
	// formulation.
	ErrPreconditionViolation = errors.New("precondition violation")
	// ErrSolverInitialization is returned when the nonlinear solver cannot be set up.
	ErrSolverInitialization = errors.New("solver initialization failure")
	// ErrDegenerateSolution is returned when the QP solver finds no usable solution.
	ErrDegenerateSolution = errors.New("degenerate solution")
	// ErrInvalidGaitRequest is returned for malformed gait requests.
	ErrInvalidGaitRequest = errors.New("invalid gait request")
)

// NewNoSplinesError is returned by Formulate for an empty spline sequence.
func NewNoSplinesError() error {
	return errors.Wrap(ErrPreconditionViolation, "no splines to formulate over")
}

// NewNotFormulatedError is returned when a solve is attempted before formulating.
func NewNotFormulatedError() error {
	return errors.Wrap(ErrPreconditionViolation, "problem must be formulated before solving")
}

// NewInvalidGaitRequestError wraps the reason a gait request was rejected.
func NewInvalidGaitRequestError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidGaitRequest, format, args...)
}

// NewSolverInitializationError wraps the cause of a failed solver setup.
func NewSolverInitializationError(err error) error {
	return errors.Wrap(ErrSolverInitialization, err.Error())
}

// NewDegenerateSolutionError wraps the reason a QP solution was rejected.
func NewDegenerateSolutionError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrDegenerateSolution, format, args...)
}
