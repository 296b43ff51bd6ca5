// Implements attribute filters, written in the usual
// cartographic style syntax:
//
//	[STATE] = 'California' and not ([NAME].match('^San'))
//
// The expression is rewritten into the expr language and
// compiled once; evaluation happens against the feature attributes.
package filter

import (
	"fmt"
	"strings"

	"github.com/benoitkugler/okmap/geom"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter decides whether a feature is selected.
type Filter interface {
	Pass(f *geom.Feature) bool
	String() string
}

// All is the filter accepting every feature.
var All Filter = all{}

type all struct{}

func (all) Pass(*geom.Feature) bool { return true }
func (all) String() string          { return "true" }

// Expression is a compiled filter expression.
type Expression struct {
	source  string
	program *vm.Program
}

// Parse compiles the filter expression s.
func Parse(s string) (*Expression, error) {
	src := strings.TrimSpace(s)
	if src == "" {
		return nil, fmt.Errorf("filter: empty expression")
	}
	translated, err := translate(src)
	if err != nil {
		return nil, fmt.Errorf("filter: invalid expression %q: %w", s, err)
	}
	program, err := expr.Compile(translated, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("filter: invalid expression %q: %w", s, err)
	}
	return &Expression{source: src, program: program}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Expression {
	e, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return e
}

// Pass evaluates the expression on the attributes of f.
// Evaluation errors, such as comparing a string to
// a number, reject the feature.
func (e *Expression) Pass(f *geom.Feature) bool {
	env := map[string]interface{}(f.Props)
	if env == nil {
		env = map[string]interface{}{}
	}
	out, err := expr.Run(e.program, env)
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

// String returns the expression as written.
func (e *Expression) String() string { return e.source }
