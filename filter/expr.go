// Package filter compiles suite filters from expr-lang expressions, e.g.
//
//	"suite:redstone" in tags && maxTicks <= 200
//	batch == "night" || name startsWith "piston_"
package filter

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/comalice/gametestx"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Env is the environment an expression is evaluated against, one per
// definition.
type Env struct {
	Suite      string   `expr:"suite"`
	Name       string   `expr:"name"`
	ID         string   `expr:"id"`
	Tags       []string `expr:"tags"`
	Batch      string   `expr:"batch"`
	Structure  string   `expr:"structure"`
	Required   bool     `expr:"required"`
	Rotate     bool     `expr:"rotate"`
	Async      bool     `expr:"async"`
	MaxTicks   int      `expr:"maxTicks"`
	SetupTicks int      `expr:"setupTicks"`
	Padding    int      `expr:"padding"`
}

// EnvFor builds the evaluation environment of d.
func EnvFor(d gametestx.Definition) Env {
	return Env{
		Suite:      d.Suite,
		Name:       d.Name,
		ID:         d.ID(),
		Tags:       slices.Clone(d.Tags),
		Batch:      d.Batch,
		Structure:  d.StructureName,
		Required:   d.Required,
		Rotate:     d.RotateTest,
		Async:      d.IsAsync(),
		MaxTicks:   d.MaxTicks,
		SetupTicks: d.SetupTicks,
		Padding:    d.Padding,
	}
}

// Expr is a compiled boolean filter expression.
type Expr struct {
	source  string
	program *vm.Program
}

var _ gametestx.Filter = (*Expr)(nil)

// Compile parses expression and type-checks it against Env. The result
// must be boolean.
func Compile(expression string) (*Expr, error) {
	program, err := expr.Compile(expression, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("filter: compile %q: %w", expression, err)
	}
	return &Expr{source: expression, program: program}, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(expression string) *Expr {
	e, err := Compile(expression)
	if err != nil {
		panic(err)
	}
	return e
}

// Eval runs the expression for d.
func (e *Expr) Eval(d gametestx.Definition) (bool, error) {
	out, err := expr.Run(e.program, EnvFor(d))
	if err != nil {
		return false, fmt.Errorf("filter: eval %q for %s: %w", e.source, d.ID(), err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Match implements gametestx.Filter. Evaluation errors exclude the
// definition.
func (e *Expr) Match(d gametestx.Definition) bool {
	ok, err := e.Eval(d)
	if err != nil {
		slog.Warn("filter evaluation failed", "error", err)
		return false
	}
	return ok
}

func (e *Expr) String() string {
	return "expr(" + e.source + ")"
}

// And matches definitions matched by every filter.
func And(filters ...gametestx.Filter) gametestx.Filter {
	return combined{filters: filters, all: true}
}

// Or matches definitions matched by any filter.
func Or(filters ...gametestx.Filter) gametestx.Filter {
	return combined{filters: filters}
}

type combined struct {
	filters []gametestx.Filter
	all     bool
}

func (c combined) Match(d gametestx.Definition) bool {
	for _, f := range c.filters {
		if f.Match(d) != c.all {
			return !c.all
		}
	}
	return c.all
}

func (c combined) String() string {
	op := " || "
	if c.all {
		op = " && "
	}
	s := ""
	for i, f := range c.filters {
		if i > 0 {
			s += op
		}
		s += f.String()
	}
	return "(" + s + ")"
}
