// Package pathfilter decides whether a file path belongs to first-party
// code or to vendored/ephemeral directories that analyzers should skip
// by default.
package pathfilter

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// defaultExclusions is the fixed segment-exclusion set. Matching is by
// exact path segment, not prefix, so a shallow "build/" directory is
// excluded without false-positives on files whose names merely contain
// "build".
var defaultExclusions = map[string]struct{}{
	".venv":            {},
	"venv":             {},
	"env":              {},
	"site-packages":    {},
	"__pycache__":      {},
	".tox":             {},
	".nox":             {},
	".egg-info":        {},
	".poetry":          {},
	"node_modules":     {},
	"bower_components": {},
	".npm":             {},
	"vendor":           {},
	"pkg":              {},
	".bundle":          {},
	".git":             {},
	"build":            {},
	"dist":             {},
	"target":           {},
	".pytest_cache":    {},
	".mypy_cache":      {},
	".ruff_cache":      {},
}

// ShouldExclude decides whether relativePath should be skipped during
// analysis. When includeExternal is true it always returns false.
// Otherwise it returns true iff any path segment matches the default
// exclusion set.
func ShouldExclude(relativePath string, includeExternal bool) bool {
	if includeExternal {
		return false
	}

	for _, segment := range splitSegments(relativePath) {
		if _, excluded := defaultExclusions[segment]; excluded {
			return true
		}
	}

	return false
}

// Filter augments the fixed segment set with a repo's own .gitignore
// patterns, loaded once per repo root. The fixed segment set is always
// consulted first and unconditionally: gitignore patterns are additive,
// never a replacement, so ShouldExclude's invariant still holds for
// callers that only need the base rule.
type Filter struct {
	repoRoot string
	ignore   *gitignore.GitIgnore
}

// NewFilter builds a Filter for repoRoot. A missing or unreadable
// .gitignore is not an error: the filter simply has no supplemental
// patterns.
func NewFilter(repoRoot string) *Filter {
	f := &Filter{repoRoot: repoRoot}

	gitignorePath := filepath.Join(repoRoot, ".gitignore")
	if _, statErr := os.Stat(gitignorePath); statErr == nil {
		compiled, compileErr := gitignore.CompileIgnoreFile(gitignorePath)
		if compileErr == nil {
			f.ignore = compiled
		}
	}

	return f
}

// ShouldExclude reports whether relativePath should be skipped, per
// ShouldExclude plus this repo's .gitignore patterns when present.
func (f *Filter) ShouldExclude(relativePath string, includeExternal bool) bool {
	if includeExternal {
		return false
	}

	if ShouldExclude(relativePath, false) {
		return true
	}

	if f.ignore != nil && f.ignore.MatchesPath(relativePath) {
		return true
	}

	return false
}

func splitSegments(relativePath string) []string {
	cleaned := filepath.ToSlash(filepath.Clean(relativePath))

	return strings.Split(cleaned, "/")
}
