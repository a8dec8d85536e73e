// Package engine defines the template-evaluator seam used by the generation
// pipeline. The pipeline never talks to a concrete template library; it
// renders through this interface so evaluators can be swapped or faked in
// tests.
package engine

import "io"

// Renderer is the contract the generator relies on. The default
// implementation lives in the pongo subpackage.
type Renderer interface {
	// RenderString evaluates template content against data and returns the
	// result, optionally teeing it into the supplied writers.
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	// RegisterFilter adds a named filter usable from template expressions.
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	// GlobalContext seeds values available to every subsequent render.
	GlobalContext(data any) error
}
