package expr

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// bindings renders vars as (def name value) lines in name order.
func bindings(vars map[string]float64) (string, error) {
	names := make([]string, 0, len(vars))
	for name := range vars {
		if !identPattern.MatchString(name) {
			return "", fmt.Errorf("expr: invalid variable name %q", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "(def %s %s)\n", identifier(name), formatFloat(vars[name]))
	}
	return sb.String(), nil
}

// identifier converts kebab-case names to the underscore form zygomys
// accepts.
func identifier(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// formatFloat always produces a float literal so zygomys never falls back
// to integer arithmetic.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// prepareSource turns user input into zygomys source. Input that parses
// as infix arithmetic is rewritten into prefix form; otherwise input
// starting with "(" is taken as Lisp and passes through with kebab-case
// identifiers converted.
func prepareSource(src string) (string, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return "", EvalError{Message: "empty expression"}
	}
	out, err := infixSource(trimmed)
	if err == nil {
		return out, nil
	}
	if strings.HasPrefix(trimmed, "(") {
		return preprocessLisp(trimmed), nil
	}
	return "", err
}

// preprocessLisp converts ; comments to // and kebab-case identifiers to
// underscores, skipping string literals.
func preprocessLisp(source string) string {
	result := make([]byte, 0, len(source))
	b := []byte(source)
	for i := 0; i < len(b); i++ {
		switch {
		case b[i] == '"':
			result = append(result, b[i])
			for i++; i < len(b) && b[i] != '"'; i++ {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i])
					i++
				}
				result = append(result, b[i])
			}
			if i < len(b) {
				result = append(result, b[i])
			}
		case b[i] == ';':
			result = append(result, '/', '/')
			for i+1 < len(b) && b[i+1] == ';' {
				i++
			}
		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			result = append(result, '_')
		default:
			result = append(result, b[i])
		}
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp
	tokOpen
	tokClose
)

type token struct {
	kind tokenKind
	text string
	col  int
}

// tokenize splits infix input into numbers, identifiers, operators and
// parentheses.
func tokenize(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case isDigit(c) || c == '.':
			j := i
			for j < len(src) && (isDigit(src[j]) || src[j] == '.') {
				j++
			}
			if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
				k := j + 1
				if k < len(src) && (src[k] == '+' || src[k] == '-') {
					k++
				}
				if k < len(src) && isDigit(src[k]) {
					for k < len(src) && isDigit(src[k]) {
						k++
					}
					j = k
				}
			}
			text := src[i:j]
			if _, err := strconv.ParseFloat(text, 64); err != nil {
				return nil, EvalError{Col: i + 1, Message: fmt.Sprintf("malformed number %q", text)}
			}
			toks = append(toks, token{tokNumber, text, i + 1})
			i = j
		case isLetter(c) || c == '_':
			j := i
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j], i + 1})
			i = j
		case strings.IndexByte("+-*/", c) >= 0:
			toks = append(toks, token{tokOp, string(c), i + 1})
			i++
		case c == '(':
			toks = append(toks, token{tokOpen, "(", i + 1})
			i++
		case c == ')':
			toks = append(toks, token{tokClose, ")", i + 1})
			i++
		default:
			return nil, EvalError{Col: i + 1, Message: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return toks, nil
}

// opNegate is the operator-stack entry for unary minus.
const opNegate = "neg"

func precedence(op string) int {
	switch op {
	case "+", "-":
		return 1
	case "*", "/":
		return 2
	}
	return 3 // opNegate
}

// infixSource rewrites infix arithmetic into a prefix S-expression with
// the shunting-yard algorithm. Integers become floats so zygomys never
// falls back to integer division.
func infixSource(src string) (string, error) {
	toks, err := tokenize(src)
	if err != nil {
		return "", err
	}
	if len(toks) == 0 {
		return "", EvalError{Message: "empty expression"}
	}

	var out []string
	var ops []token
	apply := func(op string) {
		if op == opNegate {
			x := out[len(out)-1]
			if isDigit(x[0]) {
				out[len(out)-1] = "-" + x
			} else {
				out[len(out)-1] = "(* -1.0 " + x + ")"
			}
			return
		}
		a, b := out[len(out)-2], out[len(out)-1]
		out = append(out[:len(out)-2], "("+op+" "+a+" "+b+")")
	}
	pop := func() token {
		t := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		return t
	}

	depth := 0
	operandExpected := true
	for _, t := range toks {
		switch t.kind {
		case tokNumber, tokIdent:
			if !operandExpected {
				return "", EvalError{Col: t.col, Message: fmt.Sprintf("unexpected %s", t.text)}
			}
			if t.kind == tokNumber {
				out = append(out, formatNumber(t.text))
			} else {
				out = append(out, identifier(t.text))
			}
			operandExpected = false
		case tokOpen:
			if !operandExpected {
				return "", EvalError{Col: t.col, Message: "unexpected ("}
			}
			depth++
			ops = append(ops, t)
		case tokClose:
			depth--
			if depth < 0 || operandExpected {
				return "", EvalError{Col: t.col, Message: "unexpected )"}
			}
			for top := pop(); top.kind != tokOpen; top = pop() {
				apply(top.text)
			}
		case tokOp:
			if operandExpected {
				if t.text != "-" {
					return "", EvalError{Col: t.col, Message: fmt.Sprintf("unexpected operator %s", t.text)}
				}
				ops = append(ops, token{kind: tokOp, text: opNegate, col: t.col})
				continue
			}
			// Binary operators are left-associative.
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.kind != tokOp || precedence(top.text) < precedence(t.text) {
					break
				}
				apply(pop().text)
			}
			ops = append(ops, t)
			operandExpected = true
		}
	}
	if depth != 0 {
		return "", EvalError{Col: len(src), Message: "unbalanced parentheses"}
	}
	if operandExpected {
		return "", EvalError{Col: len(src), Message: "expression ends with an operator"}
	}
	for len(ops) > 0 {
		apply(pop().text)
	}
	return out[0], nil
}

func formatNumber(text string) string {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return text
	}
	return formatFloat(v)
}
