package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs all functions in parallel, return is elapsed time and an error.
// The first failure cancels the context handed to the others.
func RunInParallel(ctx context.Context, fs []SimpleFunc) (time.Duration, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	var bigError error
	var bigErrorMutex sync.Mutex
	storeError := func(err error) {
		bigErrorMutex.Lock()
		defer bigErrorMutex.Unlock()
		if bigError == nil || !errors.Is(err, context.Canceled) {
			bigError = multierr.Combine(bigError, err)
		}
	}

	for _, f := range fs {
		wg.Add(1)
		f := f
		utils.PanicCapturingGo(func() {
			defer func() {
				if thePanic := recover(); thePanic != nil {
					storeError(fmt.Errorf("got panic running something in parallel: %v", thePanic))
					cancel()
				}
				wg.Done()
			}()
			if err := f(ctx); err != nil {
				storeError(err)
				cancel()
			}
		})
	}

	wg.Wait()
	return time.Since(start), bigError
}
