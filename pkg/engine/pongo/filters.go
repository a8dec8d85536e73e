package pongo

import (
	"strings"
	"unicode"

	"github.com/flosch/pongo2/v6"
	"github.com/google/uuid"
)

// uuidNamespace anchors deterministic uuid_generate output so regenerating
// a file yields the same identifiers for the same input.
var uuidNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("com.goliatone.go-templify"))

func registerDefaultFilters() {
	register := func(name string, fn pongo2.FilterFunction) {
		if !pongo2.FilterExists(name) {
			_ = pongo2.RegisterFilter(name, fn)
		}
	}

	register("camelcase", stringFilter(CamelCase))
	register("pascalcase", stringFilter(PascalCase))
	register("snakecase", stringFilter(SnakeCase))
	register("kebabcase", stringFilter(KebabCase))
	register("screamingsnakecase", stringFilter(ScreamingSnakeCase))
	register("uuid_generate", filterUUIDGenerate)
}

func stringFilter(fn func(string) string) pongo2.FilterFunction {
	return func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		return pongo2.AsValue(fn(in.String())), nil
	}
}

// filterUUIDGenerate returns a deterministic v5 UUID for non-empty input
// and a random v4 UUID otherwise.
func filterUUIDGenerate(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(GenerateUUID(in.String())), nil
}

// GenerateUUID derives a stable v5 UUID from seed, or a random v4 UUID
// when seed is empty.
func GenerateUUID(seed string) string {
	if seed == "" {
		return uuid.New().String()
	}
	return uuid.NewSHA1(uuidNamespace, []byte(seed)).String()
}

// PascalCase converts snake_case, kebab-case, or camelCase input to
// PascalCase: user_name → UserName.
func PascalCase(s string) string {
	if s == "" {
		return ""
	}
	parts := splitWords(s)
	for i, part := range parts {
		parts[i] = capitalize(part)
	}
	return strings.Join(parts, "")
}

// CamelCase converts input to camelCase: user_name → userName.
func CamelCase(s string) string {
	if s == "" {
		return ""
	}
	parts := splitWords(s)
	for i, part := range parts {
		if i == 0 {
			parts[i] = strings.ToLower(part)
		} else {
			parts[i] = capitalize(part)
		}
	}
	return strings.Join(parts, "")
}

// SnakeCase converts input to snake_case: UserName → user_name,
// HTTPServer → http_server.
func SnakeCase(s string) string {
	return strings.Join(lowerWords(s), "_")
}

// KebabCase converts input to kebab-case: UserName → user-name.
func KebabCase(s string) string {
	return strings.Join(lowerWords(s), "-")
}

// ScreamingSnakeCase converts input to SCREAMING_SNAKE_CASE.
func ScreamingSnakeCase(s string) string {
	return strings.ToUpper(SnakeCase(s))
}

func lowerWords(s string) []string {
	parts := splitWords(s)
	for i, part := range parts {
		parts[i] = strings.ToLower(part)
	}
	return parts
}

// splitWords breaks identifiers on underscores, hyphens, spaces, and
// case boundaries, keeping acronym runs together (HTTPServer → HTTP, Server).
func splitWords(s string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					flush()
				}
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()

	if len(words) == 0 {
		return []string{""}
	}
	return words
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
