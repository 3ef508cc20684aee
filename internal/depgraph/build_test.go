package depgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiveData-Inc/air-toolkit/internal/detect"
)

func TestBuildDrawsEdgeFromManifests(t *testing.T) {
	appDir := t.TempDir()
	libDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(appDir, "go.mod"),
		[]byte("module example.com/app\n\ngo 1.24\n\nrequire example.com/widgetlib v1.0.0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "go.mod"),
		[]byte("module example.com/widgetlib\n\ngo 1.24\n"), 0o644))

	repos := []RepoInput{
		{Name: "app", Path: appDir},
		{Name: "widgetlib", Path: libDir},
	}

	graph := Build(repos, detect.NewDefaultRegistry())

	edges := graph.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "app", edges[0].From)
	assert.Equal(t, "widgetlib", edges[0].To)

	levels, ok := graph.Levels()
	require.True(t, ok)
	require.Len(t, levels, 2)
	assert.Equal(t, []string{"widgetlib"}, levels[0])
	assert.Equal(t, []string{"app"}, levels[1])
}
