package analyze

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityAnalyzerLongFunctionAndParams(t *testing.T) {
	dir := t.TempDir()

	var body strings.Builder

	body.WriteString("func DoWork(a, b, c, d, e, f int) int {\n")
	for i := 0; i < 150; i++ {
		body.WriteString("\tx := a + b\n\t_ = x\n")
	}
	body.WriteString("\treturn a\n}\n")

	writeAnalyzeFile(t, dir, "work.go", body.String())

	result, err := QualityAnalyzer{}.Analyze(dir, false, nil)
	require.NoError(t, err)

	titles := map[string]bool{}
	for _, f := range result.Findings {
		titles[f.Title] = true
	}

	assert.True(t, titles["Long function"])
	assert.True(t, titles["Excessive parameter count"])
	assert.True(t, titles["Missing docstring on public entry point"])
}

func TestQualityAnalyzerMissingReadme(t *testing.T) {
	dir := t.TempDir()
	writeAnalyzeFile(t, dir, "main.go", "func main() {}\n")

	result, err := QualityAnalyzer{}.Analyze(dir, false, nil)
	require.NoError(t, err)

	var found bool

	for _, f := range result.Findings {
		if f.Title == "Missing top-level README" {
			found = true
		}
	}

	assert.True(t, found)
}

func TestQualityAnalyzerReadmeSuppressesFinding(t *testing.T) {
	dir := t.TempDir()
	writeAnalyzeFile(t, dir, "README.md", "# Project\n")
	writeAnalyzeFile(t, dir, "main.go", "func main() {}\n")

	result, err := QualityAnalyzer{}.Analyze(dir, false, nil)
	require.NoError(t, err)

	for _, f := range result.Findings {
		assert.NotEqual(t, "Missing top-level README", f.Title)
	}
}
