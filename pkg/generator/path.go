package generator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Errors reported while resolving dynamic path segments.
var (
	// ErrUndefinedKey reports a path expression referencing a key the data
	// dictionary does not define.
	ErrUndefinedKey = errors.New("generator: undefined key in path expression")
	// ErrInvalidName reports a resolved path segment that is not a valid
	// file or directory name.
	ErrInvalidName = errors.New("generator: resolved name is not a valid path segment")
)

// pathExprRe captures the leading identifier of each {{ ... }} expression
// in a path segment, so undefined references fail loudly instead of
// resolving to an empty name.
var pathExprRe = regexp.MustCompile(`\{\{-?\s*([A-Za-z_][A-Za-z0-9_]*)`)

// renderPathSegment resolves one file or directory name through the
// template evaluator. Every referenced top-level key must exist in data,
// and the result must be usable as a single path component.
func (g *Generator) renderPathSegment(segment string, data map[string]any) (string, error) {
	for _, match := range pathExprRe.FindAllStringSubmatch(segment, -1) {
		key := match[1]
		if _, ok := data[key]; !ok {
			return "", fmt.Errorf("%w: %q in segment %q", ErrUndefinedKey, key, segment)
		}
	}

	resolved, err := g.engine.RenderString(segment, data)
	if err != nil {
		return "", fmt.Errorf("generator: render path segment %q: %w", segment, err)
	}

	if err := validateSegment(resolved); err != nil {
		return "", fmt.Errorf("%w: %q (from %q)", err, resolved, segment)
	}
	return resolved, nil
}

func validateSegment(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	if name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return ErrInvalidName
	}
	return nil
}
