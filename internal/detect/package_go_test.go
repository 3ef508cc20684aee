package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoModDetector(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", `module example.com/widget

go 1.24

require (
	github.com/spf13/cobra v1.8.0
	github.com/spf13/viper v1.18.0 // indirect
)

require github.com/stretchr/testify v1.9.0
`)

	detector := GoModDetector{}
	require.True(t, detector.CanDetect(dir))

	result, err := detector.Detect(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"github.com/spf13/cobra",
		"github.com/spf13/viper",
		"github.com/stretchr/testify",
	}, result.Dependencies)

	name, ok := producedPackageNameGo(dir)
	require.True(t, ok)
	assert.Equal(t, "example.com/widget", name)
}

func TestGoModDetectorMissingManifest(t *testing.T) {
	dir := t.TempDir()

	detector := GoModDetector{}
	assert.False(t, detector.CanDetect(dir))
}
