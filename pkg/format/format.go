// Package format pipes generated content through external formatter
// commands (gofmt, prettier, rustfmt, ...) before it is written. Manual
// sections can be shielded from the formatter so hand-authored content
// comes back byte-identical.
package format

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/goliatone/go-templify/pkg/output"
	"github.com/goliatone/go-templify/pkg/sections"
)

// Config mirrors the `format` block of the generation config file.
type Config struct {
	Enabled    bool                 `yaml:"enabled"`
	Formatters map[string]Formatter `yaml:"formatters"`
	Defaults   Defaults             `yaml:"defaults"`
}

// Formatter describes one external formatter command. The map key in
// Config.Formatters is the filename pattern it applies to (`*.go`, `*.ts`).
type Formatter struct {
	Type    string   `yaml:"type"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Enabled *bool    `yaml:"enabled"`
}

// IsEnabled defaults to true when the flag is omitted.
func (f Formatter) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// Defaults carries formatter-wide settings.
type Defaults struct {
	IgnorePatterns         []string `yaml:"ignore_patterns"`
	PreserveManualSections *bool    `yaml:"preserve_manual_sections"`
}

func (d Defaults) preserve() bool {
	return d.PreserveManualSections == nil || *d.PreserveManualSections
}

// Manager applies the configured formatters. Formatting is best-effort: a
// failing formatter logs through the sink and the content passes through
// unchanged.
type Manager struct {
	cfg       Config
	extractor *sections.Extractor
	sink      output.Sink
}

// NewManager builds a Manager. The extractor must use the same markers as
// the rest of the pipeline so preserved blocks line up.
func NewManager(cfg Config, extractor *sections.Extractor, sink output.Sink) *Manager {
	if sink == nil {
		sink = output.Nop()
	}
	if extractor == nil {
		extractor = sections.NewExtractor(sections.Markers{})
	}
	return &Manager{cfg: cfg, extractor: extractor, sink: sink}
}

// Format runs the formatter matching filename over content and returns
// the result. Content is returned unchanged when formatting is disabled,
// no formatter matches, the file is ignored, or the formatter fails.
func (m *Manager) Format(ctx context.Context, content, filename string) string {
	if !m.cfg.Enabled {
		return content
	}
	if m.ignored(filename) {
		m.sink.Verbose(fmt.Sprintf("formatter skipped %s", filename))
		return content
	}

	formatter, ok := m.formatterFor(filename)
	if !ok {
		return content
	}

	var blocks map[string]string
	if m.cfg.Defaults.preserve() {
		extracted, err := m.extractor.ExtractBlocks(content)
		if err == nil {
			blocks = extracted
		}
	}

	formatted, err := m.run(ctx, formatter, content)
	if err != nil {
		m.sink.Error(fmt.Sprintf("formatter failed for %s: %v", filename, err))
		return content
	}

	if len(blocks) > 0 {
		restored, err := m.extractor.RestoreBlocks(formatted, blocks)
		if err != nil {
			m.sink.Error(fmt.Sprintf("restoring manual sections in %s: %v", filename, err))
			return content
		}
		return restored
	}
	return formatted
}

func (m *Manager) ignored(filename string) bool {
	for _, pattern := range m.cfg.Defaults.IgnorePatterns {
		if matchesPattern(filename, pattern) {
			return true
		}
	}
	return false
}

func (m *Manager) formatterFor(filename string) (Formatter, bool) {
	for pattern, formatter := range m.cfg.Formatters {
		if !formatter.IsEnabled() {
			continue
		}
		if matchesPattern(filename, pattern) {
			return formatter, true
		}
	}
	return Formatter{}, false
}

func matchesPattern(filename, pattern string) bool {
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(filename, pattern[1:])
	}
	return filename == pattern || strings.HasSuffix(filename, pattern)
}

// run pipes content through the formatter command's stdin and reads the
// formatted result from stdout.
func (m *Manager) run(ctx context.Context, formatter Formatter, content string) (string, error) {
	if formatter.Type != "" && formatter.Type != "command" {
		return "", fmt.Errorf("format: unsupported formatter type %q", formatter.Type)
	}
	if formatter.Command == "" {
		return "", fmt.Errorf("format: formatter has no command")
	}

	cmd := exec.CommandContext(ctx, formatter.Command, formatter.Args...)
	cmd.Stdin = strings.NewReader(content)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("format: %s: %s", formatter.Command, msg)
		}
		return "", fmt.Errorf("format: %s: %w", formatter.Command, err)
	}
	return stdout.String(), nil
}
