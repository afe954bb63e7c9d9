package tools

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"

	"github.com/runeberg/flare/internal/provider"
)

// Calculator evaluates plain arithmetic queries ("2+2", "(3.5*4)^2").
type Calculator struct{}

// NewCalculator returns the arithmetic short-circuit.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Name implements Tool.
func (c *Calculator) Name() string { return "calculator" }

// Evaluate implements Tool. Queries without an operator (bare numbers,
// words) are not arithmetic and fall through.
func (c *Calculator) Evaluate(query string) (Result, bool) {
	expr := strings.TrimSpace(query)
	if !looksArithmetic(expr) {
		return Result{}, false
	}

	value, err := evalExpr(expr)
	if err != nil {
		return Result{}, false
	}

	return Result{
		Candidate: provider.Candidate{
			Title:    formatNumber(value),
			Subtitle: expr + " =",
			Category: provider.CategoryTool,
			Action:   provider.NoopAction{},
		},
		Score: ShortCircuitScore,
	}, true
}

// looksArithmetic requires at least one digit, at least one operator,
// and nothing outside the arithmetic alphabet.
func looksArithmetic(expr string) bool {
	hasDigit := false
	hasOp := false
	for i, r := range expr {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case r == '.' || r == '(' || r == ')' || unicode.IsSpace(r):
		case r == '+' || r == '*' || r == '/' || r == '%' || r == '^':
			hasOp = true
		case r == '-':
			// Leading minus is a sign, not evidence of arithmetic.
			if i > 0 {
				hasOp = true
			}
		default:
			return false
		}
	}
	return hasDigit && hasOp
}

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenOperator
	tokenLeftParen
	tokenRightParen
)

type calcToken struct {
	kind  tokenKind
	value float64
	op    byte
}

// opUnaryMinus is the internal operator byte for negation.
const opUnaryMinus = 'n'

func tokenizeExpr(expr string) ([]calcToken, error) {
	var tokens []calcToken
	// The previous token decides whether '-' negates or subtracts.
	prevOperand := false

	for i := 0; i < len(expr); {
		ch := expr[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case ch >= '0' && ch <= '9' || ch == '.':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			v, err := strconv.ParseFloat(expr[i:j], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "bad number %q", expr[i:j])
			}
			tokens = append(tokens, calcToken{kind: tokenNumber, value: v})
			prevOperand = true
			i = j
		case ch == '(':
			tokens = append(tokens, calcToken{kind: tokenLeftParen})
			prevOperand = false
			i++
		case ch == ')':
			tokens = append(tokens, calcToken{kind: tokenRightParen})
			prevOperand = true
			i++
		case ch == '+' || ch == '-' || ch == '*' || ch == '/' || ch == '%' || ch == '^':
			op := ch
			if ch == '-' && !prevOperand {
				op = opUnaryMinus
			}
			tokens = append(tokens, calcToken{kind: tokenOperator, op: op})
			prevOperand = false
			i++
		default:
			return nil, errors.Newf("unexpected character %q", ch)
		}
	}
	return tokens, nil
}

func opPrecedence(op byte) int {
	switch op {
	case '^':
		return 4
	case opUnaryMinus:
		return 3
	case '*', '/', '%':
		return 2
	default:
		return 1
	}
}

func opRightAssoc(op byte) bool {
	return op == '^' || op == opUnaryMinus
}

// evalExpr runs shunting-yard into an RPN stack and folds it.
func evalExpr(expr string) (float64, error) {
	tokens, err := tokenizeExpr(expr)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, errors.New("empty expression")
	}

	var output []calcToken
	var ops []calcToken

	for _, tok := range tokens {
		switch tok.kind {
		case tokenNumber:
			output = append(output, tok)
		case tokenOperator:
			// Unary minus binds to the right; it never pops.
			if tok.op == opUnaryMinus {
				ops = append(ops, tok)
				continue
			}
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.kind != tokenOperator {
					break
				}
				if opPrecedence(top.op) > opPrecedence(tok.op) ||
					(opPrecedence(top.op) == opPrecedence(tok.op) && !opRightAssoc(tok.op)) {
					output = append(output, top)
					ops = ops[:len(ops)-1]
					continue
				}
				break
			}
			ops = append(ops, tok)
		case tokenLeftParen:
			ops = append(ops, tok)
		case tokenRightParen:
			matched := false
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if top.kind == tokenLeftParen {
					matched = true
					break
				}
				output = append(output, top)
			}
			if !matched {
				return 0, errors.New("unbalanced parentheses")
			}
		}
	}
	for len(ops) > 0 {
		top := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if top.kind == tokenLeftParen {
			return 0, errors.New("unbalanced parentheses")
		}
		output = append(output, top)
	}

	var stack []float64
	pop := func() (float64, bool) {
		if len(stack) == 0 {
			return 0, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	for _, tok := range output {
		if tok.kind == tokenNumber {
			stack = append(stack, tok.value)
			continue
		}
		if tok.op == opUnaryMinus {
			v, ok := pop()
			if !ok {
				return 0, errors.New("dangling operator")
			}
			stack = append(stack, -v)
			continue
		}
		b, okB := pop()
		a, okA := pop()
		if !okA || !okB {
			return 0, errors.New("dangling operator")
		}
		var v float64
		switch tok.op {
		case '+':
			v = a + b
		case '-':
			v = a - b
		case '*':
			v = a * b
		case '/':
			if b == 0 {
				return 0, errors.New("division by zero")
			}
			v = a / b
		case '%':
			if b == 0 {
				return 0, errors.New("division by zero")
			}
			v = math.Mod(a, b)
		case '^':
			v = math.Pow(a, b)
		}
		stack = append(stack, v)
	}

	if len(stack) != 1 {
		return 0, errors.New("malformed expression")
	}
	result := stack[0]
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, errors.New("result out of range")
	}
	return result, nil
}

// formatNumber rounds away float noise and trims trailing zeros.
func formatNumber(v float64) string {
	rounded := math.Round(v*1e10) / 1e10
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
