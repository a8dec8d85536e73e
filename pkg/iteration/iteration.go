// Package iteration parses and evaluates the `iterate` expressions a
// template set can declare: "service in services" runs the whole folder
// once per service, optionally filtered with a trailing condition and
// chained with ">>" for nested loops.
package iteration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-templify/pkg/engine"
)

// Errors reported while parsing or evaluating iteration expressions.
var (
	// ErrInvalidSyntax reports an expression that is not "var in path".
	ErrInvalidSyntax = errors.New("iteration: invalid iteration syntax")
	// ErrPathNotFound reports a data path that does not resolve.
	ErrPathNotFound = errors.New("iteration: data path not found")
	// ErrNotIterable reports a data path that resolves to a non-sequence.
	ErrNotIterable = errors.New("iteration: data path is not a sequence")
)

// Binding is one parsed "var in expr [if condition]" clause.
type Binding struct {
	Var       string
	Expr      string
	Condition string
}

// ParseSimple parses a single clause like "item in items" or
// "item in items if item.enabled".
func ParseSimple(expr string) (Binding, error) {
	clause := expr
	condition := ""
	if idx := strings.Index(clause, " if "); idx >= 0 {
		condition = strings.TrimSpace(clause[idx+len(" if "):])
		clause = clause[:idx]
	}

	parts := strings.Split(clause, " in ")
	if len(parts) != 2 {
		return Binding{}, fmt.Errorf("%w: %q", ErrInvalidSyntax, expr)
	}

	b := Binding{
		Var:       strings.TrimSpace(parts[0]),
		Expr:      strings.TrimSpace(parts[1]),
		Condition: condition,
	}
	if b.Var == "" || b.Expr == "" {
		return Binding{}, fmt.Errorf("%w: %q", ErrInvalidSyntax, expr)
	}
	return b, nil
}

// Parse parses an iteration expression, splitting nested clauses joined
// with ">>": "module in modules >> component in module.components".
func Parse(expr string) ([]Binding, error) {
	var bindings []Binding
	for _, part := range strings.Split(expr, ">>") {
		b, err := ParseSimple(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

// Evaluator resolves bindings against a data dictionary. Conditions are
// evaluated through the template engine, so they use the same syntax as
// template expressions.
type Evaluator struct {
	engine engine.Renderer
}

// NewEvaluator builds an Evaluator on the given engine seam.
func NewEvaluator(renderer engine.Renderer) *Evaluator {
	return &Evaluator{engine: renderer}
}

// Items resolves the binding's data path against data and returns the
// sequence items passing the binding's condition (all of them when there
// is no condition). The condition sees the full dictionary plus the item
// bound under the binding's variable name.
func (e *Evaluator) Items(data map[string]any, b Binding) ([]any, error) {
	value, ok := resolvePath(data, b.Expr)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPathNotFound, b.Expr)
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q resolved to %T", ErrNotIterable, b.Expr, value)
	}

	if b.Condition == "" {
		return items, nil
	}

	template := "{% if " + b.Condition + " %}1{% endif %}"
	var out []any
	for _, item := range items {
		scope := make(map[string]any, len(data)+1)
		for key, val := range data {
			scope[key] = val
		}
		scope[b.Var] = item

		result, err := e.engine.RenderString(template, scope)
		if err != nil {
			return nil, fmt.Errorf("iteration: evaluate condition %q: %w", b.Condition, err)
		}
		if strings.TrimSpace(result) == "1" {
			out = append(out, item)
		}
	}
	return out, nil
}

// resolvePath walks a dotted path ("dd.modules.components") through
// nested mappings. The "dd" prefix names the dictionary itself.
func resolvePath(data map[string]any, path string) (any, bool) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "dd.")
	if path == "dd" {
		return any(data), true
	}

	var current any = data
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
