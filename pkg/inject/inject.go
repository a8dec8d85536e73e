// Package inject implements regex-driven patching of existing files. An
// injection template names a pattern, a regex with a single capture group
// named "injection" marking the insertion point, and a payload that is
// spliced in right after whatever the group captured. Applying the same
// spec twice is a no-op.
package inject

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Literal markers delimiting the blocks of an injection template.
const (
	patternMarker = "<!-- injection-pattern:"
	markerClose   = "-->"
	payloadStart  = "<!-- injection-string-start -->"
	payloadEnd    = "<!-- injection-string-end -->"
)

// Errors reported while parsing or applying injection specs.
var (
	// ErrTargetMissing reports an injection whose target file does not exist.
	ErrTargetMissing = errors.New("inject: target file does not exist")
	// ErrNoMatch reports a regex that matched the target zero times.
	ErrNoMatch = errors.New("inject: pattern not found in target")
	// ErrAmbiguousMatch reports a regex that matched more than once.
	// Injection targets must be unambiguous; first-match-wins would risk
	// silent misplacement.
	ErrAmbiguousMatch = errors.New("inject: pattern matches target more than once")
	// ErrBadPattern reports a regex that does not compile.
	ErrBadPattern = errors.New("inject: invalid regex pattern")
	// ErrMissingGroup reports a regex without exactly one capture group
	// named "injection".
	ErrMissingGroup = errors.New("inject: regex needs exactly one named capture group \"injection\"")
	// ErrBadSpec reports a malformed injection template.
	ErrBadSpec = errors.New("inject: malformed injection template")
)

// Spec is one parsed injection block: a pattern name for diagnostics, the
// regex source, and the payload to splice in.
type Spec struct {
	Name    string
	Pattern string
	Payload string
}

var patternNameRe = regexp.MustCompile(regexp.QuoteMeta(patternMarker) + `\s*([A-Za-z0-9_-]+)\s*` + regexp.QuoteMeta(markerClose))

// Parse breaks an injection template (already rendered by the template
// evaluator) into its specs. A template may carry several blocks; each
// needs a pattern header, a regex, and a payload delimited by the literal
// start/end markers.
func Parse(content string) ([]Spec, error) {
	headers := patternNameRe.FindAllStringSubmatchIndex(content, -1)
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no %q header", ErrBadSpec, patternMarker)
	}

	specs := make([]Spec, 0, len(headers))
	for i, header := range headers {
		name := content[header[2]:header[3]]

		sectionEnd := len(content)
		if i+1 < len(headers) {
			sectionEnd = headers[i+1][0]
		}
		section := content[header[1]:sectionEnd]

		startIdx := strings.Index(section, payloadStart)
		if startIdx < 0 {
			return nil, fmt.Errorf("%w: block %q has no %q marker", ErrBadSpec, name, payloadStart)
		}
		pattern := strings.TrimSpace(section[:startIdx])
		if pattern == "" {
			return nil, fmt.Errorf("%w: block %q has an empty regex", ErrBadSpec, name)
		}

		rest := section[startIdx+len(payloadStart):]
		endIdx := strings.Index(rest, payloadEnd)
		if endIdx < 0 {
			return nil, fmt.Errorf("%w: block %q has no %q marker", ErrBadSpec, name, payloadEnd)
		}
		payload := trimMarkerNewlines(rest[:endIdx])

		specs = append(specs, Spec{Name: name, Pattern: pattern, Payload: payload})
	}
	return specs, nil
}

// trimMarkerNewlines removes the line break that follows the start marker
// and the one that precedes the end marker, so the payload is exactly the
// lines between them.
func trimMarkerNewlines(s string) string {
	s = strings.TrimPrefix(s, "\r\n")
	s = strings.TrimPrefix(s, "\n")
	if strings.HasSuffix(s, "\r\n") {
		return strings.TrimSuffix(s, "\r\n")
	}
	return strings.TrimSuffix(s, "\n")
}

// Result reports what Apply did to the target content.
type Result int

const (
	// NoOp means the payload was already present; nothing changed.
	NoOp Result = iota
	// Applied means the payload was inserted.
	Applied
)

// Apply runs spec against the target content and returns the patched
// content. The regex must match exactly once; the payload is inserted
// after the text captured by the "injection" group, preceded by a line
// break when the insertion point is not at a line boundary.
func Apply(target string, spec Spec) (string, Result, error) {
	re, err := regexp.Compile(spec.Pattern)
	if err != nil {
		return "", NoOp, fmt.Errorf("%w: %q: %v", ErrBadPattern, spec.Name, err)
	}

	groupIdx, err := injectionGroupIndex(re)
	if err != nil {
		return "", NoOp, fmt.Errorf("%s: %w", spec.Name, err)
	}

	matches := re.FindAllStringSubmatchIndex(target, -1)
	switch len(matches) {
	case 0:
		return "", NoOp, fmt.Errorf("%w: %q (%s)", ErrNoMatch, spec.Name, spec.Pattern)
	case 1:
	default:
		return "", NoOp, fmt.Errorf("%w: %q matched %d times", ErrAmbiguousMatch, spec.Name, len(matches))
	}

	m := matches[0]
	start, end := m[2*groupIdx], m[2*groupIdx+1]
	if start < 0 || end < 0 {
		return "", NoOp, fmt.Errorf("%w: %q: group did not capture", ErrNoMatch, spec.Name)
	}

	captured := target[start:end]
	payload := spec.Payload

	// Idempotence: the payload already sits at the end of the captured
	// span or immediately after it.
	if strings.HasSuffix(strings.TrimSuffix(captured, "\n"), payload) {
		return target, NoOp, nil
	}
	if rest := target[end:]; strings.HasPrefix(rest, payload) || strings.HasPrefix(rest, "\n"+payload) {
		return target, NoOp, nil
	}

	// The payload goes on its own line(s) right after the captured span.
	insertion := "\n" + payload
	if strings.HasSuffix(captured, "\n") {
		insertion = payload + "\n"
	}
	return target[:end] + insertion + target[end:], Applied, nil
}

// injectionGroupIndex returns the submatch index of the "injection" group
// and rejects regexes with any other named group.
func injectionGroupIndex(re *regexp.Regexp) (int, error) {
	idx := -1
	for i, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		if name != "injection" || idx >= 0 {
			return 0, ErrMissingGroup
		}
		idx = i
	}
	if idx < 0 {
		return 0, ErrMissingGroup
	}
	return idx, nil
}
