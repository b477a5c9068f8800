package expr

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is returned when an evaluation runs past the evaluator's
	// timeout. The sandbox goroutine is abandoned, not stopped.
	ErrTimeout = errors.New("expr: evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation finished after
	// a newer one started.
	ErrSuperseded = errors.New("expr: evaluation superseded by a newer one")
)

type evalResult struct {
	value float64
	err   error
}

// current reports whether gen is still the latest evaluation.
func (e *Evaluator) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation == gen
}

// wait collects the result of evaluation gen from ch.
func (e *Evaluator) wait(ch <-chan evalResult, gen uint64) (float64, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		return 0, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	case res := <-ch:
		if !e.current(gen) {
			return 0, ErrSuperseded
		}
		return res.value, res.err
	}
}
