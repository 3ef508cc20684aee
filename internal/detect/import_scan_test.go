package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPythonImportDetector(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "import os\nimport requests\nfrom django.db import models\nfrom . import sibling\nfrom .utils import helper\n")

	detector := PythonImportDetector{}
	require.True(t, detector.CanDetect(dir))

	result, err := detector.Detect(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"os", "requests", "django"}, result.Dependencies)
}

func TestJSImportDetector(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.ts", `
import React from 'react';
import { foo } from "./local";
import bar from '../also-local';
import { z } from '@scope/pkg';
const lodash = require('lodash');
`)

	detector := JSImportDetector{}
	require.True(t, detector.CanDetect(dir))

	result, err := detector.Detect(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"react", "@scope/pkg", "lodash"}, result.Dependencies)
}

func TestGoImportDetector(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/myrepo\n\ngo 1.24\n")
	writeFile(t, dir, "main.go", `package main

import (
	"fmt"
	"example.com/myrepo/internal/foo"
	"github.com/spf13/cobra"
)

func main() {
	fmt.Println(cobra.Command{})
}
`)

	detector := GoImportDetector{}
	require.True(t, detector.CanDetect(dir))

	result, err := detector.Detect(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"github.com/spf13/cobra"}, result.Dependencies)
}

func TestAPIDetectorStub(t *testing.T) {
	detector := APIDetector{}
	assert.True(t, detector.CanDetect("anything"))

	result, err := detector.Detect("anything")
	require.NoError(t, err)
	assert.Empty(t, result.Dependencies)
	assert.Equal(t, detector.DependencyType(), result.DependencyType)
}
