package detect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

type stubDetector struct {
	name     string
	can      bool
	result   model.DependencyResult
	err      error
	panicVal any
}

func (s stubDetector) Name() string                         { return s.name }
func (s stubDetector) DependencyType() model.DependencyType { return s.result.DependencyType }
func (s stubDetector) CanDetect(string) bool                { return s.can }

func (s stubDetector) Detect(string) (model.DependencyResult, error) {
	if s.panicVal != nil {
		panic(s.panicVal)
	}

	return s.result, s.err
}

func TestRegistryDetectAllSkipsFailuresAndPanics(t *testing.T) {
	registry := NewRegistry()
	registry.Register(stubDetector{name: "a", can: false})
	registry.Register(stubDetector{name: "b", can: true, err: errors.New("boom")})
	registry.Register(stubDetector{name: "c", can: true, panicVal: "kaboom"})
	registry.Register(stubDetector{
		name: "d",
		can:  true,
		result: model.DependencyResult{
			DependencyType: model.DependencyPackage,
			Dependencies:   []string{"ok"},
		},
	})

	results := registry.DetectAll("/some/repo")
	require.Len(t, results, 1)
	assert.Equal(t, []string{"ok"}, results[0].Dependencies)
}

func TestRegistryDetectByType(t *testing.T) {
	registry := NewRegistry()
	registry.Register(stubDetector{
		name: "pkg",
		can:  true,
		result: model.DependencyResult{
			DependencyType: model.DependencyPackage,
			Dependencies:   []string{"requests"},
		},
	})
	registry.Register(stubDetector{
		name: "imp",
		can:  true,
		result: model.DependencyResult{
			DependencyType: model.DependencyImport,
			Dependencies:   []string{"os"},
		},
	})

	packages := registry.DetectByType("/some/repo", model.DependencyPackage)
	require.Len(t, packages, 1)
	assert.Equal(t, "requests", packages[0].Dependencies[0])
}

func TestNormalizeNamesDedupesAndSorts(t *testing.T) {
	names := normalizeNames([]string{"Requests", "requests", " Flask ", ""})
	assert.Equal(t, []string{"flask", "requests"}, names)
}

func TestNewDefaultRegistryDetectsGoMod(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/widget\n\ngo 1.24\n\nrequire (\n\tgithub.com/spf13/cobra v1.8.0\n)\n")

	registry := NewDefaultRegistry()
	results := registry.DetectByType(dir, model.DependencyPackage)

	require.Len(t, results, 1)
	assert.Equal(t, "go.mod", results[0].SourceFile)
	assert.Contains(t, results[0].Dependencies, "github.com/spf13/cobra")
}

func TestProducedPackageNamePrefersGo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/widget\n\ngo 1.24\n")
	writeFile(t, dir, "package.json", `{"name": "widget-js"}`)

	name, ok := ProducedPackageName(dir)
	require.True(t, ok)
	assert.Equal(t, "example.com/widget", name)
}
