package sections

import (
	"fmt"
	"sort"
	"strings"
)

// OrphanPolicy decides what happens to sections that exist in the prior
// output but no longer appear in the freshly rendered template.
type OrphanPolicy int

const (
	// OrphanDrop silently discards orphaned sections (the default).
	OrphanDrop OrphanPolicy = iota
	// OrphanError fails the merge so hand-written content is never lost
	// without the caller noticing.
	OrphanError
)

// Merger splices previously extracted manual sections into freshly
// rendered output. It never invents section ids: only ids present in the
// rendered output can receive prior content.
type Merger struct {
	extractor *Extractor
	policy    OrphanPolicy
}

// NewMerger builds a merger using the given markers and orphan policy.
func NewMerger(markers Markers, policy OrphanPolicy) *Merger {
	return &Merger{
		extractor: NewExtractor(markers),
		policy:    policy,
	}
}

// Merge returns rendered with every section body replaced by the prior
// content for ids present in both. Ids only in the rendered output keep
// their rendered default. Rendered content with invalid section structure
// fails before any splicing happens.
func (m *Merger) Merge(rendered string, prior map[string]string) (string, error) {
	lines := strings.Split(rendered, "\n")
	var out []string
	next := 0
	merged := make(map[string]struct{}, len(prior))

	err := m.extractor.scan(rendered, func(id string, _ []string, startLine, endLine int) {
		out = append(out, lines[next:startLine]...)
		out = append(out, lines[startLine])
		if body, ok := prior[id]; ok {
			merged[id] = struct{}{}
			if body != "" {
				out = append(out, strings.Split(body, "\n")...)
			}
		} else {
			out = append(out, lines[startLine+1:endLine]...)
		}
		out = append(out, lines[endLine])
		next = endLine + 1
	})
	if err != nil {
		return "", err
	}

	if m.policy == OrphanError {
		var orphans []string
		for id := range prior {
			if _, ok := merged[id]; !ok {
				orphans = append(orphans, id)
			}
		}
		if len(orphans) > 0 {
			sort.Strings(orphans)
			return "", fmt.Errorf("%w: %s missing from rendered output", ErrOrphanedSection, strings.Join(orphans, ", "))
		}
	}

	out = append(out, lines[next:]...)
	return strings.Join(out, "\n"), nil
}
