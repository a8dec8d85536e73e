package inject

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleTemplate = `<!-- injection-pattern: register-route -->
(?P<injection>// routes go here)
<!-- injection-string-start -->
mux.Handle("/users", userHandler)
<!-- injection-string-end -->
`

func TestParseSingleSpec(t *testing.T) {
	specs, err := Parse(sampleTemplate)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	want := []Spec{{
		Name:    "register-route",
		Pattern: "(?P<injection>// routes go here)",
		Payload: `mux.Handle("/users", userHandler)`,
	}}
	if diff := cmp.Diff(want, specs); diff != "" {
		t.Fatalf("unexpected specs (-want +got):\n%s", diff)
	}
}

func TestParseMultipleSpecs(t *testing.T) {
	content := sampleTemplate + `<!-- injection-pattern: register-import -->
(?P<injection>import \()
<!-- injection-string-start -->
	"net/http"
<!-- injection-string-end -->
`
	specs, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	if specs[1].Name != "register-import" {
		t.Fatalf("unexpected second spec name: %q", specs[1].Name)
	}
	if specs[1].Payload != "\t\"net/http\"" {
		t.Fatalf("unexpected second payload: %q", specs[1].Payload)
	}
}

func TestParseMultilinePayload(t *testing.T) {
	content := `<!-- injection-pattern: block -->
(?P<injection>anchor)
<!-- injection-string-start -->
line one
line two
<!-- injection-string-end -->
`
	specs, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if specs[0].Payload != "line one\nline two" {
		t.Fatalf("unexpected payload: %q", specs[0].Payload)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no header", "just text\n"},
		{"missing start marker", "<!-- injection-pattern: x -->\n(?P<injection>a)\n"},
		{"missing end marker", "<!-- injection-pattern: x -->\n(?P<injection>a)\n<!-- injection-string-start -->\npayload\n"},
		{"empty regex", "<!-- injection-pattern: x -->\n<!-- injection-string-start -->\npayload\n<!-- injection-string-end -->\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.content); !errors.Is(err, ErrBadSpec) {
				t.Fatalf("expected ErrBadSpec, got %v", err)
			}
		})
	}
}

func TestApplyInsertsPayload(t *testing.T) {
	target := `func register(mux *http.ServeMux) {
	// routes go here
}
`
	spec := Spec{
		Name:    "register-route",
		Pattern: `(?P<injection>// routes go here)`,
		Payload: `	mux.Handle("/users", userHandler)`,
	}

	got, result, err := Apply(target, spec)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if result != Applied {
		t.Fatalf("expected Applied, got %v", result)
	}

	want := `func register(mux *http.ServeMux) {
	// routes go here
	mux.Handle("/users", userHandler)
}
`
	if got != want {
		t.Fatalf("apply mismatch:\n%q\nwant:\n%q", got, want)
	}
}

func TestApplyIdempotent(t *testing.T) {
	target := `// routes go here
`
	spec := Spec{
		Name:    "route",
		Pattern: `(?P<injection>// routes go here)`,
		Payload: `mux.Handle("/users", userHandler)`,
	}

	once, result, err := Apply(target, spec)
	if err != nil {
		t.Fatalf("first Apply returned error: %v", err)
	}
	if result != Applied {
		t.Fatalf("first apply should insert, got %v", result)
	}

	twice, result, err := Apply(once, spec)
	if err != nil {
		t.Fatalf("second Apply returned error: %v", err)
	}
	if result != NoOp {
		t.Fatalf("second apply should be a no-op, got %v", result)
	}
	if twice != once {
		t.Fatalf("second apply changed content:\n%q\nwant:\n%q", twice, once)
	}
}

func TestApplyIdempotentWiderCapture(t *testing.T) {
	// The capture group swallows the already-injected payload; applying
	// again must still be a no-op.
	target := "anchor\npayload line\nrest\n"
	spec := Spec{
		Name:    "wide",
		Pattern: `(?P<injection>anchor\npayload line)`,
		Payload: "payload line",
	}

	got, result, err := Apply(target, spec)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if result != NoOp {
		t.Fatalf("expected NoOp, got %v", result)
	}
	if got != target {
		t.Fatalf("content changed: %q", got)
	}
}

func TestApplyNoMatch(t *testing.T) {
	spec := Spec{Name: "x", Pattern: `(?P<injection>missing anchor)`, Payload: "p"}

	_, _, err := Apply("nothing to see", spec)
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestApplyAmbiguousMatch(t *testing.T) {
	spec := Spec{Name: "x", Pattern: `(?P<injection>anchor)`, Payload: "p"}

	_, _, err := Apply("anchor and anchor again", spec)
	if !errors.Is(err, ErrAmbiguousMatch) {
		t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
	}
}

func TestApplyBadPattern(t *testing.T) {
	spec := Spec{Name: "x", Pattern: `(?P<injection>[`, Payload: "p"}

	_, _, err := Apply("content", spec)
	if !errors.Is(err, ErrBadPattern) {
		t.Fatalf("expected ErrBadPattern, got %v", err)
	}
}

func TestApplyMissingGroup(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"no named group", `anchor`},
		{"wrong name", `(?P<other>anchor)`},
		{"extra named group", `(?P<injection>anchor)(?P<other>.)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Spec{Name: "x", Pattern: tt.pattern, Payload: "p"}
			if _, _, err := Apply("anchor!", spec); !errors.Is(err, ErrMissingGroup) {
				t.Fatalf("expected ErrMissingGroup, got %v", err)
			}
		})
	}
}
