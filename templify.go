// Package templify renders template trees against a data dictionary while
// preserving hand-authored edits across regenerations: marker-delimited
// manual sections survive, and `.inj` templates patch generated files
// idempotently.
package templify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-templify/pkg/engine"
	"github.com/goliatone/go-templify/pkg/engine/pongo"
	"github.com/goliatone/go-templify/pkg/format"
	"github.com/goliatone/go-templify/pkg/generator"
	"github.com/goliatone/go-templify/pkg/output"
	"github.com/goliatone/go-templify/pkg/sections"
)

// ErrInvalidData reports a data dictionary that cannot be adapted into
// the shape template expressions expect.
var ErrInvalidData = errors.New("templify: data does not adapt to a mapping")

// Option customises a RenderHelper.
type Option func(*settings)

type settings struct {
	contextName  string
	sink         output.Sink
	markers      sections.Markers
	orphanPolicy sections.OrphanPolicy
	formatConfig *format.Config
	engine       engine.Renderer
	filters      []namedFilter
	globals      map[string]any
	dryRun       bool
	keepGoing    bool
}

type namedFilter struct {
	name string
	fn   func(input any, param any) (any, error)
}

// WithContextName exposes the dictionary under a single top-level name,
// so templates reference `name.key` instead of `key`.
func WithContextName(name string) Option {
	return func(s *settings) {
		s.contextName = name
	}
}

// WithSink injects the reporting sink used for progress and diagnostics.
func WithSink(sink output.Sink) Option {
	return func(s *settings) {
		s.sink = sink
	}
}

// WithMarkers overrides the manual-section marker pair.
func WithMarkers(markers sections.Markers) Option {
	return func(s *settings) {
		s.markers = markers
	}
}

// WithOrphanPolicy decides what happens to manual sections present in
// prior output but removed from the template.
func WithOrphanPolicy(policy sections.OrphanPolicy) Option {
	return func(s *settings) {
		s.orphanPolicy = policy
	}
}

// WithFormatter enables post-render formatting with the given
// configuration.
func WithFormatter(cfg format.Config) Option {
	return func(s *settings) {
		s.formatConfig = &cfg
	}
}

// WithFilter registers a template filter on the evaluator, usable from
// any template expression as `{{ value|name }}`.
func WithFilter(name string, fn func(input any, param any) (any, error)) Option {
	return func(s *settings) {
		s.filters = append(s.filters, namedFilter{name: name, fn: fn})
	}
}

// WithGlobals seeds values available to every render, independent of the
// per-run dictionary.
func WithGlobals(globals map[string]any) Option {
	return func(s *settings) {
		s.globals = globals
	}
}

// WithEngine swaps the template evaluator. Defaults to the pongo2-backed
// engine.
func WithEngine(renderer engine.Renderer) Option {
	return func(s *settings) {
		s.engine = renderer
	}
}

// WithDryRun reports what would be written without touching the disk.
func WithDryRun(dryRun bool) Option {
	return func(s *settings) {
		s.dryRun = dryRun
	}
}

// WithKeepGoing collects every file-level failure instead of aborting on
// the first one.
func WithKeepGoing(keepGoing bool) Option {
	return func(s *settings) {
		s.keepGoing = keepGoing
	}
}

// RenderHelper owns the data dictionary for the lifetime of a generation
// run and drives the recursive walk. The dictionary is read-only once the
// helper is built.
type RenderHelper struct {
	data map[string]any
	gen  *generator.Generator
}

// New adapts data into the render dictionary and wires the generation
// pipeline. Without a context name, data must adapt to a mapping; with
// one, any serializable value works and is nested under that name.
func New(data any, options ...Option) (*RenderHelper, error) {
	s := &settings{sink: output.Nop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}

	dict, err := adaptData(data, s.contextName)
	if err != nil {
		return nil, err
	}

	renderer := s.engine
	if renderer == nil {
		renderer, err = pongo.New()
		if err != nil {
			return nil, fmt.Errorf("templify: build engine: %w", err)
		}
	}
	for _, f := range s.filters {
		if err := renderer.RegisterFilter(f.name, f.fn); err != nil {
			return nil, fmt.Errorf("templify: register filter %q: %w", f.name, err)
		}
	}
	if len(s.globals) > 0 {
		if err := renderer.GlobalContext(s.globals); err != nil {
			return nil, fmt.Errorf("templify: apply globals: %w", err)
		}
	}

	genOptions := []generator.Option{
		generator.WithSink(s.sink),
		generator.WithMarkers(s.markers),
		generator.WithOrphanPolicy(s.orphanPolicy),
		generator.WithDryRun(s.dryRun),
		generator.WithKeepGoing(s.keepGoing),
	}
	if s.formatConfig != nil {
		manager := format.NewManager(*s.formatConfig, sections.NewExtractor(s.markers), s.sink)
		genOptions = append(genOptions, generator.WithFormatter(manager))
	}

	return &RenderHelper{
		data: dict,
		gen:  generator.New(renderer, genOptions...),
	}, nil
}

// Generate renders templatePath into outputRoot. A single template file
// produces one output; a directory is walked recursively with dynamic
// names resolved per path segment. The first failure aborts the run and
// is returned; output already written stays on disk.
func (h *RenderHelper) Generate(ctx context.Context, templatePath, outputRoot string) error {
	if ctx == nil {
		return errors.New("templify: context is required")
	}
	return h.gen.Generate(ctx, templatePath, outputRoot, h.data)
}

// Data exposes the adapted dictionary, mainly for diagnostics.
func (h *RenderHelper) Data() map[string]any {
	return h.data
}

// adaptData converts arbitrary caller values into the dictionary shape
// through a JSON round-trip, mirroring how values flow into template
// contexts.
func adaptData(data any, contextName string) (map[string]any, error) {
	if contextName != "" {
		return map[string]any{contextName: data}, nil
	}

	switch v := data.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		dict := map[string]any{}
		if err := json.Unmarshal(raw, &dict); err != nil {
			return nil, fmt.Errorf("%w: expected an object, got %T", ErrInvalidData, data)
		}
		return dict, nil
	}
}
