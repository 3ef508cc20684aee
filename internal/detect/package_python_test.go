package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirementsDetector(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "requirements.txt", "requests==2.31.0\nflask[async]>=2.0  # web framework\n\n# comment-only line\nnumpy\n")

	detector := RequirementsDetector{}
	require.True(t, detector.CanDetect(dir))

	result, err := detector.Detect(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"requests", "flask", "numpy"}, result.Dependencies)
}

func TestPyProjectDetectorPEP621(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", `
[project]
name = "my-service"
dependencies = ["requests>=2.0", "pydantic"]
`)

	detector := PyProjectDetector{}
	require.True(t, detector.CanDetect(dir))

	result, err := detector.Detect(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"requests", "pydantic"}, result.Dependencies)

	name, ok := producedPackageNamePython(dir)
	require.True(t, ok)
	assert.Equal(t, "my-service", name)
}

func TestPyProjectDetectorPoetry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", `
[tool.poetry]
name = "poetry-service"

[tool.poetry.dependencies]
python = "^3.11"
httpx = "^0.27"
`)

	result, err := PyProjectDetector{}.Detect(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"httpx"}, result.Dependencies)

	name, ok := producedPackageNamePython(dir)
	require.True(t, ok)
	assert.Equal(t, "poetry-service", name)
}
