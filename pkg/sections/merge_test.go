package sections

import (
	"errors"
	"strings"
	"testing"
)

const renderedDefault = `// generated file
// MANUAL SECTION START: s
A
// MANUAL SECTION END
// end of file`

func TestMergePreservesPriorContent(t *testing.T) {
	m := NewMerger(Markers{}, OrphanDrop)
	prior := map[string]string{"s": "B"}

	got, err := m.Merge(renderedDefault, prior)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}

	want := `// generated file
// MANUAL SECTION START: s
B
// MANUAL SECTION END
// end of file`
	if got != want {
		t.Fatalf("merge mismatch:\n%q\nwant:\n%q", got, want)
	}
}

func TestMergeFirstGenerationKeepsDefault(t *testing.T) {
	m := NewMerger(Markers{}, OrphanDrop)

	got, err := m.Merge(renderedDefault, map[string]string{})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if got != renderedDefault {
		t.Fatalf("first generation should keep defaults:\n%q", got)
	}
}

func TestMergeNewSectionKeepsDefault(t *testing.T) {
	m := NewMerger(Markers{}, OrphanDrop)
	rendered := `// MANUAL SECTION START: old
default old
// MANUAL SECTION END
// MANUAL SECTION START: new
default new
// MANUAL SECTION END`
	prior := map[string]string{"old": "edited old"}

	got, err := m.Merge(rendered, prior)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	want := `// MANUAL SECTION START: old
edited old
// MANUAL SECTION END
// MANUAL SECTION START: new
default new
// MANUAL SECTION END`
	if got != want {
		t.Fatalf("merge mismatch:\n%q\nwant:\n%q", got, want)
	}
}

func TestMergeDropsOrphansSilently(t *testing.T) {
	m := NewMerger(Markers{}, OrphanDrop)
	prior := map[string]string{"s": "B", "removed": "gone"}

	got, err := m.Merge(renderedDefault, prior)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if got == "" || strings.Contains(got, "gone") {
		t.Fatalf("orphan content should be dropped, got:\n%q", got)
	}
}

func TestMergeOrphanErrorPolicy(t *testing.T) {
	m := NewMerger(Markers{}, OrphanError)
	prior := map[string]string{"s": "B", "removed": "gone"}

	_, err := m.Merge(renderedDefault, prior)
	if !errors.Is(err, ErrOrphanedSection) {
		t.Fatalf("expected ErrOrphanedSection, got %v", err)
	}
}

func TestMergeRejectsDuplicateRenderedIDs(t *testing.T) {
	m := NewMerger(Markers{}, OrphanDrop)
	rendered := `// MANUAL SECTION START: x
// MANUAL SECTION END
// MANUAL SECTION START: x
// MANUAL SECTION END`

	_, err := m.Merge(rendered, nil)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestMergeMultilineBodies(t *testing.T) {
	m := NewMerger(Markers{}, OrphanDrop)
	rendered := `// MANUAL SECTION START: impl
// TODO: implement
// MANUAL SECTION END`
	prior := map[string]string{"impl": "line one\nline two\nline three"}

	got, err := m.Merge(rendered, prior)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	want := `// MANUAL SECTION START: impl
line one
line two
line three
// MANUAL SECTION END`
	if got != want {
		t.Fatalf("merge mismatch:\n%q\nwant:\n%q", got, want)
	}
}
