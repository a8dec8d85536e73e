package sections

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	ex := NewExtractor(Markers{})
	content := `package main

// MANUAL SECTION START: imports
import "fmt"
// MANUAL SECTION END

func main() {
	// MANUAL SECTION START: body
	fmt.Println("hello")
	// MANUAL SECTION END
}
`

	got, err := ex.Extract(content)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	want := map[string]string{
		"imports": `import "fmt"`,
		"body":    "\tfmt.Println(\"hello\")",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected sections (-want +got):\n%s", diff)
	}
}

func TestExtractEmptyContent(t *testing.T) {
	ex := NewExtractor(Markers{})

	got, err := ex.Extract("")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty mapping, got %v", got)
	}
}

func TestExtractCommentConventions(t *testing.T) {
	// Markers are plain text; any comment syntax around them must work.
	ex := NewExtractor(Markers{})
	content := `<!-- MANUAL SECTION START: html -->
<p>custom</p>
<!-- MANUAL SECTION END -->
# MANUAL SECTION START: shell
echo custom
# MANUAL SECTION END
/* MANUAL SECTION START: c-style */
int x = 1;
/* MANUAL SECTION END */`

	got, err := ex.Extract(content)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	want := map[string]string{
		"html":    "<p>custom</p>",
		"shell":   "echo custom",
		"c-style": "int x = 1;",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected sections (-want +got):\n%s", diff)
	}
}

func TestExtractDuplicateID(t *testing.T) {
	ex := NewExtractor(Markers{})
	content := `MANUAL SECTION START: x
one
MANUAL SECTION END
MANUAL SECTION START: x
two
MANUAL SECTION END`

	_, err := ex.Extract(content)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestExtractUnterminated(t *testing.T) {
	ex := NewExtractor(Markers{})

	_, err := ex.Extract("MANUAL SECTION START: open\nnever closed\n")
	if !errors.Is(err, ErrUnterminated) {
		t.Fatalf("expected ErrUnterminated at EOF, got %v", err)
	}

	nested := `MANUAL SECTION START: outer
MANUAL SECTION START: inner
MANUAL SECTION END
MANUAL SECTION END`
	_, err = ex.Extract(nested)
	if !errors.Is(err, ErrUnterminated) {
		t.Fatalf("expected ErrUnterminated for start before end, got %v", err)
	}
}

func TestExtractEndWithoutStart(t *testing.T) {
	ex := NewExtractor(Markers{})

	_, err := ex.Extract("some text\nMANUAL SECTION END\n")
	if !errors.Is(err, ErrEndWithoutStart) {
		t.Fatalf("expected ErrEndWithoutStart, got %v", err)
	}
}

func TestExtractCustomMarkers(t *testing.T) {
	ex := NewExtractor(Markers{Start: "KEEP BEGIN", End: "KEEP DONE"})
	content := `// KEEP BEGIN: custom
hand written
// KEEP DONE`

	got, err := ex.Extract(content)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if got["custom"] != "hand written" {
		t.Fatalf("unexpected body: %q", got["custom"])
	}
}

func TestExtractIgnoresMarkerWithoutID(t *testing.T) {
	ex := NewExtractor(Markers{})
	content := "mentions MANUAL SECTION START but has no id\n"

	got, err := ex.Extract(content)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no sections, got %v", got)
	}
}

func TestExtractBlocksAndRestore(t *testing.T) {
	ex := NewExtractor(Markers{})
	content := `header
// MANUAL SECTION START: keep
original body
// MANUAL SECTION END
footer`

	blocks, err := ex.ExtractBlocks(content)
	if err != nil {
		t.Fatalf("ExtractBlocks returned error: %v", err)
	}
	wantBlock := "// MANUAL SECTION START: keep\noriginal body\n// MANUAL SECTION END"
	if blocks["keep"] != wantBlock {
		t.Fatalf("unexpected block: %q", blocks["keep"])
	}

	// Simulate a formatter mangling the section body, then restore it.
	mangled := `header
// MANUAL SECTION START: keep
MANGLED
// MANUAL SECTION END
footer`
	restored, err := ex.RestoreBlocks(mangled, blocks)
	if err != nil {
		t.Fatalf("RestoreBlocks returned error: %v", err)
	}
	if restored != content {
		t.Fatalf("restore mismatch:\n%q\nwant:\n%q", restored, content)
	}
}

func TestIDsOrder(t *testing.T) {
	ex := NewExtractor(Markers{})
	content := `MANUAL SECTION START: b
MANUAL SECTION END
MANUAL SECTION START: a
MANUAL SECTION END`

	ids, err := ex.IDs(content)
	if err != nil {
		t.Fatalf("IDs returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, ids); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}
}
