package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestClassifyEmptyRepo(t *testing.T) {
	dir := t.TempDir()

	result, err := Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceLibrary, result.Type)
	assert.Empty(t, result.TechnologyStack)
	assert.Zero(t, result.Confidence)
}

func TestClassifyDjangoService(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "manage.py", "#!/usr/bin/env python\n")
	write(t, dir, "app/views.py", "def index():\n    pass\n")
	write(t, dir, "app/models.py", "class Model:\n    pass\n")
	write(t, dir, "Dockerfile", "FROM python:3.12\n")

	result, err := Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceService, result.Type)
	assert.Equal(t, "Python", result.PrimaryLanguage)
	assert.Equal(t, "django", result.PrimaryFramework)
	assert.Equal(t, "Python/Django", result.TechnologyStack)
}

func TestClassifyLibraryNoDeployment(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	write(t, dir, "go.mod", "module example.com/lib\n\ngo 1.24\n")

	result, err := Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceLibrary, result.Type)
	assert.Equal(t, "Go", result.PrimaryLanguage)
}

func TestClassifyDocumentationRepo(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 8; i++ {
		write(t, dir, filepath.Join("docs", "page"+string(rune('a'+i))+".md"), "# Title\n\nbody\n")
	}
	write(t, dir, "snippet.py", "x = 1\n")

	result, err := Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceDocumentation, result.Type)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Python", capitalize("python"))
	assert.Equal(t, "Go", capitalize("Go"))
	assert.Equal(t, "", capitalize(""))
}
