package expr

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestInfixSource(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"product", "2*25.4", "(* 2.0 25.4)"},
		{"variables", "w / 2", "(/ w 2.0)"},
		{"grouping", "(a+b)*3", "(* (+ a b) 3.0)"},
		{"precedence", "1 + 2 * 3", "(+ 1.0 (* 2.0 3.0))"},
		{"left associative", "8 - 2 - 1", "(- (- 8.0 2.0) 1.0)"},
		{"exponent literal", "1e-3 + x", "(+ 0.001 x)"},
		{"unary minus number", "-3 * h", "(* -3.0 h)"},
		{"unary minus ident", "2 * -h", "(* 2.0 (* -1.0 h))"},
		{"unary minus group", "-(a - b)", "(* -1.0 (- a b))"},
		{"redundant parentheses", "((w))", "w"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := infixSource(tt.src)
			if err != nil {
				t.Fatalf("infixSource(%q) failed: %v", tt.src, err)
			}
			if got != tt.want {
				t.Errorf("infixSource(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestInfixSourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantCol int
	}{
		{"bad character", "2 $ 3", 3},
		{"dangling operator", "2 *", 3},
		{"unbalanced", "(1 + 2", 6},
		{"leading operator", "* 2", 1},
		{"stray close", "1 + )", 5},
		{"adjacent operands", "2 3", 3},
		{"call syntax", "(sqrt 2)", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := infixSource(tt.src)
			var ee EvalError
			if !errors.As(err, &ee) {
				t.Fatalf("err = %v, want EvalError", err)
			}
			if ee.Col != tt.wantCol {
				t.Errorf("col = %d, want %d (%v)", ee.Col, tt.wantCol, ee)
			}
		})
	}
}

func TestPreprocessLisp(t *testing.T) {
	got := preprocessLisp(`(+ board-width 2) ; note`)
	want := `(+ board_width 2) // note`
	if got != want {
		t.Errorf("preprocessLisp = %q, want %q", got, want)
	}
	// Strings are left alone.
	if got := preprocessLisp(`(str "a-b")`); got != `(str "a-b")` {
		t.Errorf("string literal rewritten: %q", got)
	}
}

func TestBindingsAreSorted(t *testing.T) {
	got, err := bindings(map[string]float64{"z": 1, "a-b": 2.5, "m": -3})
	if err != nil {
		t.Fatalf("bindings failed: %v", err)
	}
	want := "(def a_b 2.5)\n(def m -3.0)\n(def z 1.0)\n"
	if got != want {
		t.Errorf("bindings = %q, want %q", got, want)
	}
	if _, err := bindings(map[string]float64{"1x": 1}); err == nil {
		t.Error("expected error for invalid name")
	}
}

func TestEval(t *testing.T) {
	ev := New(0)
	vars := map[string]float64{"w": 10, "board-thickness": 19}
	tests := []struct {
		name string
		src  string
		want float64
	}{
		{"lisp", "(* 2 25.4)", 50.8},
		{"lisp with variable", "(+ w 1)", 11},
		{"lisp kebab variable", "(- board-thickness 4)", 15},
		{"infix", "2*25.4", 50.8},
		{"infix with variable", "w / 4", 2.5},
		{"infix grouping", "(w + 2) * 3", 36},
		{"infix parenthesized", "(w / 4)", 2.5},
		{"infix unary minus", "-w + 12", 2},
		{"infix precedence", "1 + w * 2", 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.Eval(tt.src, vars)
			if err != nil {
				t.Fatalf("Eval(%q) failed: %v", tt.src, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Eval(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	ev := New(0)
	tests := []struct {
		name string
		src  string
	}{
		{"empty", "   "},
		{"syntax", "(+ 1 2"},
		{"undefined symbol", "(+ 1 undefined-symbol)"},
		{"not a number", `"text"`},
		{"infix undefined", "2 * missing"},
		{"infix dangling", "2 *"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ev.Eval(tt.src, nil)
			if err == nil {
				t.Fatalf("Eval(%q) succeeded, want error", tt.src)
			}
			var ee EvalError
			if !errors.As(err, &ee) {
				t.Fatalf("err = %v (%T), want EvalError", err, err)
			}
			if ee.Message == "" {
				t.Error("eval error message should not be empty")
			}
		})
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") || !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() = %q", s)
	}
	e2 := EvalError{Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", e2.Error())
	}
}

func TestWaitTimesOut(t *testing.T) {
	e := &Evaluator{Timeout: 50 * time.Millisecond, generation: 1}
	ch := make(chan evalResult) // never sends

	start := time.Now()
	_, err := e.wait(ch, 1)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("timeout took %v", time.Since(start))
	}
}

func TestWaitDiscardsStaleGeneration(t *testing.T) {
	e := &Evaluator{Timeout: time.Second, generation: 2}
	ch := make(chan evalResult, 1)
	ch <- evalResult{value: 1}

	if _, err := e.wait(ch, 1); !errors.Is(err, ErrSuperseded) {
		t.Errorf("expected ErrSuperseded, got: %v", err)
	}
}

func TestWaitReturnsCurrentResult(t *testing.T) {
	e := &Evaluator{Timeout: time.Second, generation: 3}
	ch := make(chan evalResult, 1)
	ch <- evalResult{value: 42}

	v, err := e.wait(ch, 3)
	if err != nil || v != 42 {
		t.Errorf("wait = %v, %v; want 42, nil", v, err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		offset   int
		wantLine int
		wantMsg  string
	}{
		{"error on line format", "Error on line 5: unexpected token\n", 2, 3, "unexpected token"},
		{"no line info", "some generic error", 0, 0, "some generic error"},
		{"line inside bindings", "error on line 1: missing paren", 3, 1, "missing paren"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := parseZygomysError(errors.New(tt.msg), tt.offset)
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}
