//go:build windows || no_cgo

package nlp

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mohakhalili/towr/logging"
)

// Solve is not supported without cgo.
func Solve(ctx context.Context, p Problem, x0 []float64, opts Options, logger logging.Logger) (*Result, error) {
	if err := checkProblem(p, x0); err != nil {
		return nil, err
	}
	return nil, errors.Wrap(ErrInitialization, "nlopt is not supported on this build")
}
