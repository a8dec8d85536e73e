// Package sections implements marker-delimited manual sections: regions in
// generated output whose content survives regeneration. Extraction is
// line-oriented text matching, independent of the surrounding language, so
// the markers can live inside any comment convention.
package sections

import (
	"errors"
	"fmt"
	"strings"
)

// Errors reported while scanning marker-delimited content.
var (
	// ErrDuplicateID reports a section id used more than once in a file.
	ErrDuplicateID = errors.New("sections: duplicate section id")
	// ErrUnterminated reports a start marker with no matching end before
	// end-of-file or before the next start marker.
	ErrUnterminated = errors.New("sections: unterminated section")
	// ErrEndWithoutStart reports an end marker with no open section.
	ErrEndWithoutStart = errors.New("sections: end marker without start")
	// ErrOrphanedSection reports a prior section missing from the fresh
	// render when the merger runs with OrphanError.
	ErrOrphanedSection = errors.New("sections: orphaned section")
)

// Markers holds the literal start and end marker text.
type Markers struct {
	Start string
	End   string
}

// DefaultMarkers returns the standard marker pair.
func DefaultMarkers() Markers {
	return Markers{
		Start: "MANUAL SECTION START",
		End:   "MANUAL SECTION END",
	}
}

func (m Markers) orDefault() Markers {
	def := DefaultMarkers()
	if m.Start == "" {
		m.Start = def.Start
	}
	if m.End == "" {
		m.End = def.End
	}
	return m
}

// Extractor scans text for marker-delimited manual sections.
type Extractor struct {
	markers Markers
}

// NewExtractor builds an extractor; zero-value markers fall back to the
// defaults.
func NewExtractor(markers Markers) *Extractor {
	return &Extractor{markers: markers.orDefault()}
}

// Markers returns the marker pair the extractor scans for.
func (e *Extractor) Markers() Markers { return e.markers }

// Extract returns a mapping from section id to the text strictly between
// the markers (marker lines excluded). Empty or absent content yields an
// empty mapping.
func (e *Extractor) Extract(content string) (map[string]string, error) {
	out := make(map[string]string)
	err := e.scan(content, func(id string, body []string, _, _ int) {
		out[id] = strings.Join(body, "\n")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExtractBlocks returns the complete blocks, marker lines included, keyed
// by id. Used to shield sections from external formatters.
func (e *Extractor) ExtractBlocks(content string) (map[string]string, error) {
	lines := strings.Split(content, "\n")
	out := make(map[string]string)
	err := e.scan(content, func(id string, _ []string, startLine, endLine int) {
		out[id] = strings.Join(lines[startLine:endLine+1], "\n")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RestoreBlocks substitutes saved blocks back into content wherever a
// section with a matching id appears. Sections without a saved block are
// left as-is. Content with invalid structure is returned unchanged along
// with the scan error.
func (e *Extractor) RestoreBlocks(content string, blocks map[string]string) (string, error) {
	if len(blocks) == 0 {
		return content, nil
	}

	lines := strings.Split(content, "\n")
	var out []string
	next := 0
	err := e.scan(content, func(id string, _ []string, startLine, endLine int) {
		out = append(out, lines[next:startLine]...)
		if block, ok := blocks[id]; ok {
			out = append(out, strings.Split(block, "\n")...)
		} else {
			out = append(out, lines[startLine:endLine+1]...)
		}
		next = endLine + 1
	})
	if err != nil {
		return content, err
	}
	out = append(out, lines[next:]...)
	return strings.Join(out, "\n"), nil
}

// IDs returns every section id in content, in order of appearance.
func (e *Extractor) IDs(content string) ([]string, error) {
	var ids []string
	err := e.scan(content, func(id string, _ []string, _, _ int) {
		ids = append(ids, id)
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// scan walks content line by line and invokes visit for every complete
// section with its id, body lines, and the marker line indexes.
func (e *Extractor) scan(content string, visit func(id string, body []string, startLine, endLine int)) error {
	if content == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	seen := make(map[string]struct{})

	open := ""
	openLine := 0
	var body []string

	for i, line := range lines {
		if id, ok := e.parseStart(line); ok {
			if open != "" {
				return fmt.Errorf("%w: %q opened at line %d has no end marker", ErrUnterminated, open, openLine+1)
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("%w: %q at line %d", ErrDuplicateID, id, i+1)
			}
			seen[id] = struct{}{}
			open = id
			openLine = i
			body = body[:0]
			continue
		}
		if e.isEnd(line) {
			if open == "" {
				return fmt.Errorf("%w: line %d", ErrEndWithoutStart, i+1)
			}
			visit(open, body, openLine, i)
			open = ""
			continue
		}
		if open != "" {
			body = append(body, line)
		}
	}

	if open != "" {
		return fmt.Errorf("%w: %q opened at line %d has no end marker", ErrUnterminated, open, openLine+1)
	}
	return nil
}

// parseStart reports whether line holds a start marker and returns its id.
// The marker can appear anywhere in the line (inside comment syntax); the
// id is the [A-Za-z0-9_-]+ token following the colon.
func (e *Extractor) parseStart(line string) (string, bool) {
	idx := strings.Index(line, e.markers.Start)
	if idx < 0 {
		return "", false
	}
	rest := line[idx+len(e.markers.Start):]
	rest = strings.TrimLeft(rest, " \t")
	if !strings.HasPrefix(rest, ":") {
		return "", false
	}
	rest = strings.TrimLeft(rest[1:], " \t")

	end := 0
	for end < len(rest) && isIDChar(rest[end]) {
		end++
	}
	if end == 0 {
		return "", false
	}
	return rest[:end], true
}

func (e *Extractor) isEnd(line string) bool {
	if _, ok := e.parseStart(line); ok {
		return false
	}
	return strings.Contains(line, e.markers.End)
}

func isIDChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-':
		return true
	}
	return false
}
