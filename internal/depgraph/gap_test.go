package depgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return dir
}

func TestAnalyzeGapsDetectsOutdatedDependency(t *testing.T) {
	appDir := t.TempDir()
	libDir := t.TempDir()

	writeManifest(t, appDir, "package.json", `{
		"name": "app",
		"dependencies": {"widget-lib": "^1.0.0"}
	}`)
	writeManifest(t, libDir, "package.json", `{
		"name": "widget-lib",
		"version": "2.5.0"
	}`)

	repos := []RepoInput{
		{Name: "app", Path: appDir},
		{Name: "widget-lib", Path: libDir},
	}

	graph := New()
	graph.AddNode("app")
	graph.AddNode("widget-lib")
	graph.AddEdge("app", "widget-lib")

	findings := AnalyzeGaps(repos, graph)
	require.Len(t, findings, 1)
	assert.Equal(t, "architecture", findings[0].Category)
	assert.Equal(t, "package.json", findings[0].Location)
}

func TestAnalyzeGapsNoGapWhenSatisfied(t *testing.T) {
	appDir := t.TempDir()
	libDir := t.TempDir()

	writeManifest(t, appDir, "package.json", `{
		"name": "app",
		"dependencies": {"widget-lib": "^1.0.0"}
	}`)
	writeManifest(t, libDir, "package.json", `{
		"name": "widget-lib",
		"version": "1.2.0"
	}`)

	repos := []RepoInput{
		{Name: "app", Path: appDir},
		{Name: "widget-lib", Path: libDir},
	}

	graph := New()
	graph.AddNode("app")
	graph.AddNode("widget-lib")
	graph.AddEdge("app", "widget-lib")

	findings := AnalyzeGaps(repos, graph)
	assert.Empty(t, findings)
}

func TestAnalyzeGapsSkipsWhenNoVersionDeclared(t *testing.T) {
	appDir := t.TempDir()
	libDir := t.TempDir()

	writeManifest(t, appDir, "go.mod", "module example.com/app\n\ngo 1.24\n")
	writeManifest(t, libDir, "go.mod", "module example.com/widgetlib\n\ngo 1.24\n")

	repos := []RepoInput{
		{Name: "app", Path: appDir},
		{Name: "widgetlib", Path: libDir},
	}

	graph := New()
	graph.AddNode("app")
	graph.AddNode("widgetlib")
	graph.AddEdge("app", "widgetlib")

	findings := AnalyzeGaps(repos, graph)
	assert.Empty(t, findings)
}
