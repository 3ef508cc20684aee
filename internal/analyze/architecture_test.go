package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchitectureAnalyzerUnpinnedNPMDependency(t *testing.T) {
	dir := t.TempDir()
	writeAnalyzeFile(t, dir, "package.json", `{"name": "app", "dependencies": {"left-pad": "^1.0.0"}}`)

	result, err := ArchitectureAnalyzer{}.Analyze(dir, false, nil)
	require.NoError(t, err)

	var found bool

	for _, f := range result.Findings {
		if f.Title == "Unpinned dependency" && f.Location == "package.json" {
			found = true
		}
	}

	assert.True(t, found)
}

func TestArchitectureAnalyzerUnpinnedRequirementsTxt(t *testing.T) {
	dir := t.TempDir()
	writeAnalyzeFile(t, dir, "requirements.txt", "requests>=2.0\nflask==2.0.1\n")

	result, err := ArchitectureAnalyzer{}.Analyze(dir, false, nil)
	require.NoError(t, err)

	var findings []string
	for _, f := range result.Findings {
		if f.Title == "Unpinned dependency" {
			findings = append(findings, f.Description)
		}
	}

	require.Len(t, findings, 1)
	assert.Contains(t, findings[0], "requests>=2.0")
}

func TestArchitectureAnalyzerLayerDetection(t *testing.T) {
	dir := t.TempDir()
	writeAnalyzeFile(t, dir, "services/widget.go", "package services\n")
	writeAnalyzeFile(t, dir, "models/widget.go", "package models\n")

	result, err := ArchitectureAnalyzer{}.Analyze(dir, false, nil)
	require.NoError(t, err)

	var found bool

	for _, f := range result.Findings {
		if f.Title == "Layered architecture detected" {
			found = true

			layers, _ := f.Metadata["layers"].([]string)
			assert.Contains(t, layers, "services")
			assert.Contains(t, layers, "models")
		}
	}

	assert.True(t, found)
}

func TestArchitectureAnalyzerCircularImport(t *testing.T) {
	dir := t.TempDir()
	writeAnalyzeFile(t, dir, "a/a.go", "package a\n\nimport \"example.com/app/b\"\n")
	writeAnalyzeFile(t, dir, "b/b.go", "package b\n\nimport \"example.com/app/a\"\n")

	result, err := ArchitectureAnalyzer{}.Analyze(dir, false, nil)
	require.NoError(t, err)

	var found bool

	for _, f := range result.Findings {
		if f.Title == "Circular import" {
			found = true
		}
	}

	assert.True(t, found)
}
