package detect

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// RequirementsDetector reads requirements.txt-style manifests.
type RequirementsDetector struct{}

// Name implements Detector.
func (RequirementsDetector) Name() string { return "requirements" }

// DependencyType implements Detector.
func (RequirementsDetector) DependencyType() model.DependencyType { return model.DependencyPackage }

// CanDetect implements Detector.
func (RequirementsDetector) CanDetect(repoPath string) bool {
	_, err := os.Stat(filepath.Join(repoPath, "requirements.txt"))

	return err == nil
}

var requirementNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-\[\]]+`)

// Detect implements Detector.
func (RequirementsDetector) Detect(repoPath string) (model.DependencyResult, error) {
	manifestPath := filepath.Join(repoPath, "requirements.txt")

	file, openErr := os.Open(manifestPath) //nolint:gosec // repoPath is operator-supplied, not user input over a network boundary.
	if openErr != nil {
		return model.DependencyResult{}, fmt.Errorf("requirements detect: %w", openErr)
	}
	defer file.Close()

	var names []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), "#")

		match := requirementNamePattern.FindString(line)
		if match == "" {
			continue
		}

		// Strip extras, e.g. "requests[security]" -> "requests".
		match, _, _ = strings.Cut(match, "[")

		names = append(names, match)
	}

	if scanErr := scanner.Err(); scanErr != nil {
		return model.DependencyResult{}, fmt.Errorf("requirements detect: %w", scanErr)
	}

	return model.DependencyResult{
		DependencyType: model.DependencyPackage,
		Dependencies:   normalizeNames(names),
		SourceFile:     "requirements.txt",
	}, nil
}

// PyProjectDetector reads pyproject.toml's [project] dependencies.
type PyProjectDetector struct{}

// Name implements Detector.
func (PyProjectDetector) Name() string { return "pyproject" }

// DependencyType implements Detector.
func (PyProjectDetector) DependencyType() model.DependencyType { return model.DependencyPackage }

// CanDetect implements Detector.
func (PyProjectDetector) CanDetect(repoPath string) bool {
	_, err := os.Stat(filepath.Join(repoPath, "pyproject.toml"))

	return err == nil
}

type pyProjectFile struct {
	Project struct {
		Name         string   `toml:"name"`
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name         string         `toml:"name"`
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// Detect implements Detector.
func (PyProjectDetector) Detect(repoPath string) (model.DependencyResult, error) {
	manifestPath := filepath.Join(repoPath, "pyproject.toml")

	data, readErr := os.ReadFile(manifestPath) //nolint:gosec // repoPath is operator-supplied.
	if readErr != nil {
		return model.DependencyResult{}, fmt.Errorf("pyproject detect: %w", readErr)
	}

	var parsed pyProjectFile

	if unmarshalErr := toml.Unmarshal(data, &parsed); unmarshalErr != nil {
		return model.DependencyResult{}, fmt.Errorf("pyproject detect: %w", unmarshalErr)
	}

	var names []string

	for _, dep := range parsed.Project.Dependencies {
		match := requirementNamePattern.FindString(dep)
		if match != "" {
			names = append(names, match)
		}
	}

	for name := range parsed.Tool.Poetry.Dependencies {
		if name != "python" {
			names = append(names, name)
		}
	}

	return model.DependencyResult{
		DependencyType: model.DependencyPackage,
		Dependencies:   normalizeNames(names),
		SourceFile:     "pyproject.toml",
	}, nil
}

// producedPackageNamePython returns the package name a repo's own
// pyproject.toml declares it produces, for dependency-graph node
// identification.
func producedPackageNamePython(repoPath string) (string, bool) {
	manifestPath := filepath.Join(repoPath, "pyproject.toml")

	data, readErr := os.ReadFile(manifestPath) //nolint:gosec // repoPath is operator-supplied.
	if readErr != nil {
		return "", false
	}

	var parsed pyProjectFile

	if toml.Unmarshal(data, &parsed) != nil {
		return "", false
	}

	if parsed.Project.Name != "" {
		return normalizeName(parsed.Project.Name), true
	}

	if parsed.Tool.Poetry.Name != "" {
		return normalizeName(parsed.Tool.Poetry.Name), true
	}

	return "", false
}
