// Package basic implements the self-contained demo tools: wall-clock
// time, a small calculator expression language, and canned weather
// lookups.
package basic

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"github.com/tooldesk/tooldesk/internal/core"
)

// errDivisionByZero is surfaced as plain content, not as a tool error.
var errDivisionByZero = errors.New("division by zero")

// CalcTool evaluates expressions of the form fn(a, b) where fn is one of
// add, subtract, multiply, divide and each argument is a numeric literal
// or a nested call.
func CalcTool() core.Tool {
	return core.Tool{
		Descriptor: core.Descriptor{
			Name:        "calculate",
			Description: "Perform a simple calculation",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"expression": map[string]any{
						"type":        "string",
						"description": "The expression to calculate (e.g., 'add(3, 4)', 'subtract(5, 2)', 'multiply(3, 3)', 'divide(10, 2)')",
					},
				},
				"required": []string{"expression"},
			},
		},
		Handler: core.HandlerFunc(calcHandler),
	}
}

func calcHandler(ctx context.Context, args map[string]any) (core.ToolResult, error) {
	expression, _ := core.StringArg(args, "expression")
	if expression == "" {
		return core.ToolResult{Content: "Error: Expression not provided"}, nil
	}

	value, err := evalExpression(expression)
	if errors.Is(err, errDivisionByZero) {
		return core.ToolResult{Content: "Division by zero error"}, nil
	}
	if err != nil {
		return core.ToolResult{Content: fmt.Sprintf("Error: %s", err)}, nil
	}
	return core.ToolResult{Content: formatNumber(value)}, nil
}

// formatNumber renders without trailing zeros: 8, not 8.000000.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type exprParser struct {
	input string
	pos   int
}

func evalExpression(input string) (float64, error) {
	p := &exprParser{input: input}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("unexpected input at position %d: %q", p.pos, p.input[p.pos:])
	}
	return v, nil
}

func (p *exprParser) parseExpr() (float64, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0, errors.New("unexpected end of expression")
	}
	c := p.input[p.pos]
	switch {
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case isIdentStart(c):
		return p.parseCall()
	default:
		return 0, fmt.Errorf("unexpected character %q at position %d", c, p.pos)
	}
}

func (p *exprParser) parseNumber() (float64, error) {
	start := p.pos
	if p.input[p.pos] == '-' || p.input[p.pos] == '+' {
		p.pos++
	}
	for p.pos < len(p.input) && (p.input[p.pos] == '.' || (p.input[p.pos] >= '0' && p.input[p.pos] <= '9')) {
		p.pos++
	}
	lit := p.input[start:p.pos]
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", lit)
	}
	return v, nil
}

func (p *exprParser) parseCall() (float64, error) {
	name := p.parseIdent()
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != '(' {
		return 0, fmt.Errorf("expected '(' after %q", name)
	}
	p.pos++

	a, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != ',' {
		return 0, fmt.Errorf("expected ',' in arguments to %q", name)
	}
	p.pos++

	b, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != ')' {
		return 0, fmt.Errorf("expected ')' to close %q", name)
	}
	p.pos++

	return apply(name, a, b)
}

func (p *exprParser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.input) && isIdentPart(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func apply(name string, a, b float64) (float64, error) {
	switch name {
	case "add":
		return a + b, nil
	case "subtract":
		return a - b, nil
	case "multiply":
		return a * b, nil
	case "divide":
		if b == 0 {
			return 0, errDivisionByZero
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("unknown function %q", name)
	}
}
