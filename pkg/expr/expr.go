// Package expr evaluates the numeric expressions users attach to
// parameters ("2*25.4", "w/2", "(* 3 pitch)"). Each evaluation runs in a
// fresh zygomys sandbox with a hard timeout.
package expr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
)

// DefaultTimeout is the limit for a single evaluation when none is set.
const DefaultTimeout = 5 * time.Second

// EvalError represents a problem in the user's expression: a parse error,
// an undefined variable, or a result that is not a number.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	switch {
	case e.Line > 0 && e.Col > 0:
		return fmt.Sprintf("line %d col %d: %s", e.Line, e.Col, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	case e.Col > 0:
		return fmt.Sprintf("col %d: %s", e.Col, e.Message)
	}
	return e.Message
}

// Evaluator evaluates expressions. It is safe for concurrent use; a result
// that arrives after a newer evaluation has started is discarded.
type Evaluator struct {
	Timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// New returns an Evaluator with the given timeout; zero selects
// DefaultTimeout.
func New(timeout time.Duration) *Evaluator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Evaluator{Timeout: timeout}
}

// Eval evaluates src with vars bound as global definitions.
//
// Return semantics:
//   - On success: the value and nil
//   - On a problem in src: an EvalError
//   - On timeout: ErrTimeout; on a superseded request: ErrSuperseded
//   - On a panic in the sandbox: any other error
func (e *Evaluator) Eval(src string, vars map[string]float64) (float64, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		v, err := evaluate(src, vars)
		ch <- evalResult{value: v, err: err}
	}()

	return e.wait(ch, gen)
}

// evaluate runs src in a fresh sandbox.
func evaluate(src string, vars map[string]float64) (float64, error) {
	prelude, err := bindings(vars)
	if err != nil {
		return 0, err
	}
	body, err := prepareSource(src)
	if err != nil {
		return 0, err
	}
	offset := strings.Count(prelude, "\n")

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	if err := env.LoadString(prelude + body); err != nil {
		return 0, parseZygomysError(err, offset)
	}
	res, err := env.Run()
	if err != nil {
		return 0, parseZygomysError(err, offset)
	}
	return toFloat64(res)
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, EvalError{Message: fmt.Sprintf("expected number, got %s", s.SexpString(nil))}
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into an EvalError, shifting
// line numbers past the offset lines of variable bindings.
func parseZygomysError(err error, offset int) EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			line -= offset
			if line < 1 {
				line = 1
			}
			return EvalError{Line: line, Message: strings.TrimSpace(m[2])}
		}
	}
	return EvalError{Message: strings.TrimSpace(msg)}
}
