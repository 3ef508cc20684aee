package classify

import (
	"os"
	"path/filepath"
	"strings"
)

// frameworkRule matches a framework against a fixed priority: the
// first rule whose Match fires wins, regardless of how many others
// would also match.
type frameworkRule struct {
	name  string
	match func(repoPath string) bool
}

var frameworkRules = []frameworkRule{
	{"django", hasFile("manage.py")},
	{"flask", manifestContainsAny("requirements.txt", "pyproject.toml", "flask")},
	{"fastapi", manifestContainsAny("requirements.txt", "pyproject.toml", "fastapi")},
	{"next.js", hasFileGlob("next.config.*")},
	{"nuxt", hasFileGlob("nuxt.config.*")},
	{"react", manifestContainsAny("package.json", "", `"react"`)},
	{"vue", manifestContainsAny("package.json", "", `"vue"`)},
	{"angular", hasFile("angular.json")},
	{"express", manifestContainsAny("package.json", "", `"express"`)},
	{"spring", hasFile("pom.xml")},
	{"gin", manifestContainsAny("go.mod", "", "gin-gonic/gin")},
	{"echo", manifestContainsAny("go.mod", "", "labstack/echo")},
	{"rails", hasFile("Gemfile")},
}

// inferFramework matches manifest contents and characteristic
// directories against a fixed priority list, returning the first hit.
func inferFramework(repoPath string) string {
	for _, rule := range frameworkRules {
		if rule.match(repoPath) {
			return rule.name
		}
	}

	return ""
}

func hasFile(name string) func(string) bool {
	return func(repoPath string) bool {
		_, err := os.Stat(filepath.Join(repoPath, name))

		return err == nil
	}
}

func hasFileGlob(pattern string) func(string) bool {
	return func(repoPath string) bool {
		matches, err := filepath.Glob(filepath.Join(repoPath, pattern))

		return err == nil && len(matches) > 0
	}
}

// manifestContainsAny reports whether manifestName under repoPath
// contains needle (case-insensitive substring). When secondaryName is
// non-empty and manifestName is missing, secondaryName is tried
// instead (unused by current rules; kept for symmetry with detectors
// that accept either file).
func manifestContainsAny(manifestName, secondaryName, needle string) func(string) bool {
	return func(repoPath string) bool {
		data, err := os.ReadFile(filepath.Join(repoPath, manifestName)) //nolint:gosec // repoPath is operator-supplied.
		if err != nil && secondaryName != "" {
			data, err = os.ReadFile(filepath.Join(repoPath, secondaryName)) //nolint:gosec // same.
		}

		if err != nil {
			return false
		}

		return strings.Contains(strings.ToLower(string(data)), strings.ToLower(needle))
	}
}
