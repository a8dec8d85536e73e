package commands

import (
	"path"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

const regexPrefix = "regex:"

// projectDefaults loads optional project-level defaults from templify.yml
// in the working directory, with TEMPLIFY_* environment overrides.
func projectDefaults() *viper.Viper {
	v := viper.New()
	v.SetConfigName("templify")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("TEMPLIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.ReadInConfig()
	return v
}

// resolveConfigPath picks the generation config path: the flag wins, then
// the project defaults, then config.yaml.
func resolveConfigPath(flag string, defaults *viper.Viper) string {
	if flag != "" {
		return flag
	}
	if fromProject := defaults.GetString("config"); fromProject != "" {
		return fromProject
	}
	return "config.yaml"
}

// matchesPattern reports whether a template set name matches a filter
// entry. A "regex:" prefix switches to regular-expression matching;
// otherwise the entry is a glob, with plain equality as fallback for
// entries that fail to parse as globs.
func matchesPattern(pattern, name string) bool {
	if rest, ok := strings.CutPrefix(pattern, regexPrefix); ok {
		matched, err := regexp.MatchString(rest, name)
		return err == nil && matched
	}
	if matched, err := path.Match(pattern, name); err == nil {
		return matched
	}
	return pattern == name
}

// setSelected applies include/exclude filters to a set name. An empty
// include list selects everything not excluded.
func setSelected(name string, include, exclude []string) bool {
	for _, pattern := range exclude {
		if matchesPattern(pattern, name) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, pattern := range include {
		if matchesPattern(pattern, name) {
			return true
		}
	}
	return false
}
