package detect

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// GoModDetector reads go.mod's require block. It is a small hand-rolled
// line scanner rather than a full go.mod parser: the module path and
// require lines are all this tool needs, and golang.org/x/mod is not
// among the retrieved pack's dependencies (see DESIGN.md).
type GoModDetector struct{}

// Name implements Detector.
func (GoModDetector) Name() string { return "go-mod" }

// DependencyType implements Detector.
func (GoModDetector) DependencyType() model.DependencyType { return model.DependencyPackage }

// CanDetect implements Detector.
func (GoModDetector) CanDetect(repoPath string) bool {
	_, err := os.Stat(filepath.Join(repoPath, "go.mod"))

	return err == nil
}

// Detect implements Detector.
func (GoModDetector) Detect(repoPath string) (model.DependencyResult, error) {
	_, requires, err := parseGoMod(repoPath)
	if err != nil {
		return model.DependencyResult{}, err
	}

	return model.DependencyResult{
		DependencyType: model.DependencyPackage,
		Dependencies:   normalizeNames(requires),
		SourceFile:     "go.mod",
	}, nil
}

// producedPackageNameGo returns a repo's own module path, for
// dependency-graph node identification.
func producedPackageNameGo(repoPath string) (string, bool) {
	modulePath, _, err := parseGoMod(repoPath)
	if err != nil || modulePath == "" {
		return "", false
	}

	return normalizeName(modulePath), true
}

func parseGoMod(repoPath string) (modulePath string, requires []string, err error) {
	manifestPath := filepath.Join(repoPath, "go.mod")

	file, openErr := os.Open(manifestPath) //nolint:gosec // repoPath is operator-supplied.
	if openErr != nil {
		return "", nil, fmt.Errorf("go.mod detect: %w", openErr)
	}
	defer file.Close()

	inRequireBlock := false

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "module "):
			modulePath = strings.TrimSpace(strings.TrimPrefix(line, "module "))
		case strings.HasPrefix(line, "require ("):
			inRequireBlock = true
		case inRequireBlock && line == ")":
			inRequireBlock = false
		case inRequireBlock:
			if name, ok := requireLineModule(line); ok {
				requires = append(requires, name)
			}
		case strings.HasPrefix(line, "require "):
			if name, ok := requireLineModule(strings.TrimPrefix(line, "require ")); ok {
				requires = append(requires, name)
			}
		}
	}

	if scanErr := scanner.Err(); scanErr != nil {
		return "", nil, fmt.Errorf("go.mod detect: %w", scanErr)
	}

	return modulePath, requires, nil
}

// requireLineModule extracts the module path from a require line such
// as "github.com/foo/bar v1.2.3 // indirect".
func requireLineModule(line string) (string, bool) {
	line, _, _ = strings.Cut(line, "//")
	line = strings.TrimSpace(line)

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}

	return fields[0], true
}
