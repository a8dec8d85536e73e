package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesPattern(t *testing.T) {
	cases := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"docs", "docs", true},
		{"docs", "api", false},
		{"api-*", "api-v2", true},
		{"api-*", "docs", false},
		{"regex:^api-", "api-v2", true},
		{"regex:^api-", "rest-api-v2", false},
		{"regex:(", "anything", false},
		{"[", "[", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, matchesPattern(tc.pattern, tc.name),
			"pattern %q against %q", tc.pattern, tc.name)
	}
}

func TestSetSelected(t *testing.T) {
	assert.True(t, setSelected("docs", nil, nil))
	assert.True(t, setSelected("docs", []string{"docs"}, nil))
	assert.False(t, setSelected("docs", []string{"api"}, nil))
	assert.False(t, setSelected("docs", nil, []string{"docs"}))
	// exclude wins over include
	assert.False(t, setSelected("docs", []string{"docs"}, []string{"docs"}))
	assert.True(t, setSelected("api-v2", []string{"regex:^api-"}, nil))
}

func TestResolveConfigPath(t *testing.T) {
	defaults := projectDefaults()
	assert.Equal(t, "custom.yaml", resolveConfigPath("custom.yaml", defaults))
	assert.Equal(t, "config.yaml", resolveConfigPath("", defaults))
}
