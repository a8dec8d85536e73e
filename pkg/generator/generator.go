// Package generator walks a template tree and materializes it into an
// output tree: `.j2` entries are rendered and merged with manual sections
// from any prior output, `.inj` entries patch already-written files, and
// everything else is copied through. Directory and file names are
// themselves template expressions, resolved per path segment.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-templify/pkg/engine"
	"github.com/goliatone/go-templify/pkg/format"
	"github.com/goliatone/go-templify/pkg/inject"
	"github.com/goliatone/go-templify/pkg/output"
	"github.com/goliatone/go-templify/pkg/sections"
)

// Template entry kinds, discriminated by file extension.
const (
	extTemplate  = ".j2"
	extInjection = ".inj"
)

// Option customises a Generator.
type Option func(*Generator)

// WithSink injects the reporting sink. Defaults to output.Nop().
func WithSink(sink output.Sink) Option {
	return func(g *Generator) {
		if sink != nil {
			g.sink = sink
		}
	}
}

// WithMarkers overrides the manual-section marker pair.
func WithMarkers(markers sections.Markers) Option {
	return func(g *Generator) {
		g.markers = markers
	}
}

// WithOrphanPolicy decides the fate of manual sections present in prior
// output but missing from the template.
func WithOrphanPolicy(policy sections.OrphanPolicy) Option {
	return func(g *Generator) {
		g.orphanPolicy = policy
	}
}

// WithFormatter runs rendered output through a format.Manager before it is
// written.
func WithFormatter(m *format.Manager) Option {
	return func(g *Generator) {
		g.formatter = m
	}
}

// WithDryRun reports what would be written without touching the disk.
func WithDryRun(dryRun bool) Option {
	return func(g *Generator) {
		g.dryRun = dryRun
	}
}

// WithKeepGoing switches the walker from fail-fast to best-effort: every
// file-level failure is collected and reported together.
func WithKeepGoing(keepGoing bool) Option {
	return func(g *Generator) {
		g.keepGoing = keepGoing
	}
}

// Generator drives the recursive walk. The data dictionary passed to
// Generate is read-only for the duration of a run.
type Generator struct {
	engine       engine.Renderer
	sink         output.Sink
	markers      sections.Markers
	orphanPolicy sections.OrphanPolicy
	formatter    *format.Manager
	dryRun       bool
	keepGoing    bool

	extractor *sections.Extractor
	merger    *sections.Merger
}

// New builds a Generator on top of a template evaluator.
func New(renderer engine.Renderer, options ...Option) *Generator {
	g := &Generator{
		engine: renderer,
		sink:   output.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}
	g.extractor = sections.NewExtractor(g.markers)
	g.merger = sections.NewMerger(g.markers, g.orphanPolicy)
	return g
}

// injTask defers an injection template until the whole render/copy pass
// has finished, so a `.inj` entry always patches the materialized output.
type injTask struct {
	src string
	dst string
}

// Generate renders templatePath into outputRoot. A file path produces one
// output; a directory is traversed depth-first. Injection templates run
// in a second phase after every template and static file has been
// written.
func (g *Generator) Generate(ctx context.Context, templatePath, outputRoot string, data map[string]any) error {
	info, err := os.Stat(templatePath)
	if err != nil {
		return fmt.Errorf("generator: template path %q: %w", templatePath, err)
	}

	if err := g.ensureDir(outputRoot); err != nil {
		return err
	}

	var pending []injTask
	var errs []error

	collect := func(err error) error {
		if err == nil {
			return nil
		}
		if !g.keepGoing {
			return err
		}
		errs = append(errs, err)
		return nil
	}

	if info.IsDir() {
		err = g.walk(ctx, templatePath, outputRoot, data, &pending, collect)
	} else {
		err = collect(g.dispatch(ctx, templatePath, info.Name(), outputRoot, data, &pending))
	}
	if err != nil {
		return err
	}

	for _, task := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := collect(g.applyInjection(task, data)); err != nil {
			return err
		}
	}

	return errors.Join(errs...)
}

// walk traverses one template directory level. Directory names resolve
// through the path renderer before recursion so every level can be
// dynamically named.
func (g *Generator) walk(ctx context.Context, templateDir, outputDir string, data map[string]any, pending *[]injTask, collect func(error) error) error {
	entries, err := os.ReadDir(templateDir)
	if err != nil {
		return fmt.Errorf("generator: read template dir %q: %w", templateDir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		srcPath := filepath.Join(templateDir, entry.Name())

		if entry.IsDir() {
			name, err := g.renderPathSegment(entry.Name(), data)
			if err != nil {
				if err = collect(err); err != nil {
					return err
				}
				continue
			}
			dstDir := filepath.Join(outputDir, name)
			if err := g.ensureDir(dstDir); err != nil {
				if err = collect(err); err != nil {
					return err
				}
				continue
			}
			if err := g.walk(ctx, srcPath, dstDir, data, pending, collect); err != nil {
				return err
			}
			continue
		}

		if err := collect(g.dispatch(ctx, srcPath, entry.Name(), outputDir, data, pending)); err != nil {
			return err
		}
	}
	return nil
}

// dispatch routes one file entry by extension.
func (g *Generator) dispatch(ctx context.Context, srcPath, fileName, outputDir string, data map[string]any, pending *[]injTask) error {
	switch {
	case strings.HasSuffix(fileName, extTemplate):
		name, err := g.renderPathSegment(strings.TrimSuffix(fileName, extTemplate), data)
		if err != nil {
			return err
		}
		return g.generateFile(ctx, srcPath, filepath.Join(outputDir, name), data)

	case strings.HasSuffix(fileName, extInjection):
		name, err := g.renderPathSegment(strings.TrimSuffix(fileName, extInjection), data)
		if err != nil {
			return err
		}
		*pending = append(*pending, injTask{src: srcPath, dst: filepath.Join(outputDir, name)})
		return nil

	default:
		name, err := g.renderPathSegment(fileName, data)
		if err != nil {
			return err
		}
		return g.copyFile(srcPath, filepath.Join(outputDir, name))
	}
}

// generateFile renders a `.j2` template, splices in manual sections from
// any prior output at the destination, and writes the result.
func (g *Generator) generateFile(ctx context.Context, srcPath, dstPath string, data map[string]any) error {
	raw, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("generator: read template %q: %w", srcPath, err)
	}

	rendered, err := g.engine.RenderString(string(raw), data)
	if err != nil {
		return fmt.Errorf("generator: render %q: %w", srcPath, err)
	}

	prior := map[string]string{}
	if existing, err := os.ReadFile(dstPath); err == nil {
		prior, err = g.extractor.Extract(string(existing))
		if err != nil {
			return fmt.Errorf("generator: extract sections from %q: %w", dstPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("generator: read prior output %q: %w", dstPath, err)
	}

	merged, err := g.merger.Merge(rendered, prior)
	if err != nil {
		return fmt.Errorf("generator: merge %q: %w", dstPath, err)
	}

	if g.formatter != nil {
		merged = g.formatter.Format(ctx, merged, dstPath)
	}

	if g.dryRun {
		g.sink.Info(fmt.Sprintf("[dry-run] would write %s", dstPath))
		return nil
	}
	if err := g.writeFile(dstPath, []byte(merged)); err != nil {
		return err
	}
	g.sink.Info(dstPath)
	return nil
}

// applyInjection parses a rendered `.inj` template and patches the target
// file that shares its base name.
func (g *Generator) applyInjection(task injTask, data map[string]any) error {
	target, err := os.ReadFile(task.dst)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// In dry-run mode the render pass wrote nothing, so a missing
			// target only means it would have been created first.
			if g.dryRun {
				g.sink.Info(fmt.Sprintf("[dry-run] would inject into %s", task.dst))
				return nil
			}
			return fmt.Errorf("%w: %q (from %q)", inject.ErrTargetMissing, task.dst, task.src)
		}
		return fmt.Errorf("generator: read injection target %q: %w", task.dst, err)
	}

	raw, err := os.ReadFile(task.src)
	if err != nil {
		return fmt.Errorf("generator: read injection template %q: %w", task.src, err)
	}

	rendered, err := g.engine.RenderString(string(raw), data)
	if err != nil {
		return fmt.Errorf("generator: render %q: %w", task.src, err)
	}

	specs, err := inject.Parse(rendered)
	if err != nil {
		return fmt.Errorf("generator: parse %q: %w", task.src, err)
	}

	content := string(target)
	changed := false
	for _, spec := range specs {
		next, result, err := inject.Apply(content, spec)
		if err != nil {
			return fmt.Errorf("generator: inject into %q: %w", task.dst, err)
		}
		if result == inject.Applied {
			content = next
			changed = true
		}
	}

	if !changed {
		g.sink.Verbose(fmt.Sprintf("%s already up to date", task.dst))
		return nil
	}
	if g.dryRun {
		g.sink.Info(fmt.Sprintf("[dry-run] would inject into %s", task.dst))
		return nil
	}
	if err := os.WriteFile(task.dst, []byte(content), 0o644); err != nil {
		return fmt.Errorf("generator: write %q: %w", task.dst, err)
	}
	g.sink.Info(task.dst)
	return nil
}

func (g *Generator) copyFile(srcPath, dstPath string) error {
	if g.dryRun {
		g.sink.Info(fmt.Sprintf("[dry-run] would copy %s", dstPath))
		return nil
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("generator: open %q: %w", srcPath, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("generator: create directory for %q: %w", dstPath, err)
	}
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("generator: create %q: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("generator: copy %q to %q: %w", srcPath, dstPath, err)
	}
	g.sink.Info(dstPath)
	return nil
}

func (g *Generator) writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("generator: create directory for %q: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("generator: write %q: %w", path, err)
	}
	return nil
}

func (g *Generator) ensureDir(path string) error {
	if g.dryRun {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("generator: create directory %q: %w", path, err)
	}
	return nil
}
