package pathfilter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldExclude_IncludeExternalAlwaysFalse(t *testing.T) {
	assert.False(t, ShouldExclude("node_modules/foo.js", true))
	assert.False(t, ShouldExclude(".git/HEAD", true))
}

func TestShouldExclude_SegmentMatch(t *testing.T) {
	cases := []struct {
		path     string
		excluded bool
	}{
		{"node_modules/foo.js", true},
		{"src/node_modules/foo.js", true},
		{"src/main.py", false},
		{"rebuild/main.go", false}, // "rebuild" must not match "build" by substring.
		{"build/main.go", true},
		{"a/b/vendor/c.go", true},
		{".git/config", true},
		{"site-packages/requests/__init__.py", true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.excluded, ShouldExclude(tc.path, false), tc.path)
	}
}

func TestFilter_GitignoreIsAdditive(t *testing.T) {
	dir := t.TempDir()
	writeErr := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.generated.go\n"), 0o600)
	require.NoError(t, writeErr)

	f := NewFilter(dir)

	assert.True(t, f.ShouldExclude("api.generated.go", false))
	assert.True(t, f.ShouldExclude("vendor/lib.go", false), "fixed segment set still applies")
	assert.False(t, f.ShouldExclude("main.go", false))
}

func TestFilter_NoGitignore(t *testing.T) {
	dir := t.TempDir()
	f := NewFilter(dir)

	assert.True(t, f.ShouldExclude("build/out.go", false))
	assert.False(t, f.ShouldExclude("main.go", false))
}
