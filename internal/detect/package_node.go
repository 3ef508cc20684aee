package detect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// PackageJSONDetector reads package.json dependencies and devDependencies.
type PackageJSONDetector struct{}

// Name implements Detector.
func (PackageJSONDetector) Name() string { return "package-json" }

// DependencyType implements Detector.
func (PackageJSONDetector) DependencyType() model.DependencyType { return model.DependencyPackage }

// CanDetect implements Detector.
func (PackageJSONDetector) CanDetect(repoPath string) bool {
	_, err := os.Stat(filepath.Join(repoPath, "package.json"))

	return err == nil
}

type packageJSONFile struct {
	Name            string            `json:"name"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Detect implements Detector.
func (PackageJSONDetector) Detect(repoPath string) (model.DependencyResult, error) {
	parsed, err := readPackageJSON(repoPath)
	if err != nil {
		return model.DependencyResult{}, err
	}

	names := make([]string, 0, len(parsed.Dependencies)+len(parsed.DevDependencies))
	for name := range parsed.Dependencies {
		names = append(names, name)
	}

	for name := range parsed.DevDependencies {
		names = append(names, name)
	}

	return model.DependencyResult{
		DependencyType: model.DependencyPackage,
		Dependencies:   normalizeNames(names),
		SourceFile:     "package.json",
	}, nil
}

func readPackageJSON(repoPath string) (packageJSONFile, error) {
	manifestPath := filepath.Join(repoPath, "package.json")

	data, readErr := os.ReadFile(manifestPath) //nolint:gosec // repoPath is operator-supplied.
	if readErr != nil {
		return packageJSONFile{}, fmt.Errorf("package.json detect: %w", readErr)
	}

	var parsed packageJSONFile

	if unmarshalErr := json.Unmarshal(data, &parsed); unmarshalErr != nil {
		return packageJSONFile{}, fmt.Errorf("package.json detect: %w", unmarshalErr)
	}

	return parsed, nil
}

// producedPackageNameNode returns the "name" field of a repo's own
// package.json, for dependency-graph node identification.
func producedPackageNameNode(repoPath string) (string, bool) {
	parsed, err := readPackageJSON(repoPath)
	if err != nil || parsed.Name == "" {
		return "", false
	}

	return normalizeName(parsed.Name), true
}
