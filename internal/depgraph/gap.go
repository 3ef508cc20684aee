package depgraph

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// AnalyzeGaps walks every edge R -> R' in graph and compares R's
// manifest-declared version constraint for R”s package against R”s
// manifest-declared produced version. A gap finding is emitted when
// R”s version is newer than R's constraint allows, or when R's
// constraint cannot be satisfied by R”s version at all.
//
// Only manifests that declare both a comparable constraint and a
// comparable produced version participate; repos without a
// self-declared version (bare go.mod modules, for instance) are
// silently skipped rather than treated as a gap, since "no version
// information" is not evidence of a mismatch.
func AnalyzeGaps(repos []RepoInput, graph *Graph) []model.Finding {
	pathByName := make(map[string]string, len(repos))
	for _, repo := range repos {
		pathByName[repo.Name] = repo.Path
	}

	var findings []model.Finding

	for _, edge := range graph.Edges() {
		fromPath, fromOK := pathByName[edge.From]
		toPath, toOK := pathByName[edge.To]

		if !fromOK || !toOK {
			continue
		}

		producedName, ok := producedPackageName(toPath)
		if !ok {
			continue
		}

		producedVersion, ok := producedVersionOf(toPath)
		if !ok {
			continue
		}

		constraint, manifestFile, ok := constraintFor(fromPath, producedName)
		if !ok {
			continue
		}

		if finding, gap := compareVersions(edge.From, edge.To, constraint, producedVersion, manifestFile); gap {
			findings = append(findings, finding)
		}
	}

	return findings
}

func compareVersions(fromRepo, toRepo, constraintStr, versionStr, manifestFile string) (model.Finding, bool) {
	version, versionErr := semver.NewVersion(versionStr)
	if versionErr != nil {
		return model.Finding{}, false
	}

	constraint, constraintErr := semver.NewConstraint(constraintStr)
	if constraintErr != nil {
		return model.Finding{}, false
	}

	if constraint.Check(version) {
		return model.Finding{}, false
	}

	return model.Finding{
		Category:    "architecture",
		Severity:    model.SeverityMedium,
		Title:       fmt.Sprintf("version gap: %s requires %s %s, found %s", fromRepo, toRepo, constraintStr, versionStr),
		Description: fmt.Sprintf("%s depends on %s via constraint %q but %s's manifest declares version %s, which does not satisfy the constraint.", fromRepo, toRepo, constraintStr, toRepo, versionStr),
		Location:    manifestFile,
	}, true
}

// producedPackageName re-derives the package name a repo claims to
// produce, same lookup the graph builder used, so gap analysis can
// find the matching constraint key in the consumer's manifest.
func producedPackageName(repoPath string) (string, bool) {
	if name, ok := nodePackageJSONName(repoPath); ok {
		return name, true
	}

	if name, ok := nodePyProjectName(repoPath); ok {
		return name, true
	}

	return "", false
}

func producedVersionOf(repoPath string) (string, bool) {
	if version, ok := packageJSONVersion(repoPath); ok {
		return version, true
	}

	if version, ok := pyProjectVersion(repoPath); ok {
		return version, true
	}

	return "", false
}

type packageJSONManifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func readPackageJSONManifest(repoPath string) (packageJSONManifest, bool) {
	data, err := os.ReadFile(filepath.Join(repoPath, "package.json")) //nolint:gosec // repoPath is operator-supplied.
	if err != nil {
		return packageJSONManifest{}, false
	}

	var manifest packageJSONManifest
	if json.Unmarshal(data, &manifest) != nil {
		return packageJSONManifest{}, false
	}

	return manifest, true
}

func nodePackageJSONName(repoPath string) (string, bool) {
	manifest, ok := readPackageJSONManifest(repoPath)
	if !ok || manifest.Name == "" {
		return "", false
	}

	return strings.ToLower(manifest.Name), true
}

func packageJSONVersion(repoPath string) (string, bool) {
	manifest, ok := readPackageJSONManifest(repoPath)
	if !ok || manifest.Version == "" {
		return "", false
	}

	return manifest.Version, true
}

type pyProjectManifest struct {
	Project struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"project"`
}

func readPyProjectManifest(repoPath string) (pyProjectManifest, bool) {
	data, err := os.ReadFile(filepath.Join(repoPath, "pyproject.toml")) //nolint:gosec // repoPath is operator-supplied.
	if err != nil {
		return pyProjectManifest{}, false
	}

	var manifest pyProjectManifest
	if toml.Unmarshal(data, &manifest) != nil {
		return pyProjectManifest{}, false
	}

	return manifest, true
}

func nodePyProjectName(repoPath string) (string, bool) {
	manifest, ok := readPyProjectManifest(repoPath)
	if !ok || manifest.Project.Name == "" {
		return "", false
	}

	return strings.ToLower(manifest.Project.Name), true
}

func pyProjectVersion(repoPath string) (string, bool) {
	manifest, ok := readPyProjectManifest(repoPath)
	if !ok || manifest.Project.Version == "" {
		return "", false
	}

	return manifest.Project.Version, true
}

var (
	packageJSONDepPattern = regexp.MustCompile(`^\s*"([^"]+)"\s*:\s*"([^"]+)"`)
	requirementPattern    = regexp.MustCompile(`^([A-Za-z0-9_.\-]+)\s*([=<>~!^]+)\s*([0-9][0-9A-Za-z.\-]*)`)
)

type packageJSONDependencies struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// constraintFor returns the version constraint repoPath's manifest
// declares for packageName, and which manifest file it came from.
func constraintFor(repoPath, packageName string) (constraint, manifestFile string, ok bool) {
	if data, err := os.ReadFile(filepath.Join(repoPath, "package.json")); err == nil { //nolint:gosec // repoPath is operator-supplied.
		var deps packageJSONDependencies

		if json.Unmarshal(data, &deps) == nil {
			if version, exists := deps.Dependencies[packageName]; exists {
				return normalizeNPMConstraint(version), "package.json", true
			}

			if version, exists := deps.DevDependencies[packageName]; exists {
				return normalizeNPMConstraint(version), "package.json", true
			}
		}
	}

	if constraint, ok := requirementsConstraint(repoPath, packageName); ok {
		return constraint, "requirements.txt", true
	}

	return "", "", false
}

// normalizeNPMConstraint maps the common npm range prefixes onto
// Masterminds/semver's constraint syntax, which already understands
// "^"/"~"/comparison operators natively; this mainly strips a leading
// "v" that some manifests include.
func normalizeNPMConstraint(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), "v")
}

func requirementsConstraint(repoPath, packageName string) (string, bool) {
	file, err := os.Open(filepath.Join(repoPath, "requirements.txt")) //nolint:gosec // repoPath is operator-supplied.
	if err != nil {
		return "", false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), "#")

		match := requirementPattern.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}

		if !strings.EqualFold(match[1], packageName) {
			continue
		}

		operator := match[2]
		if operator == "==" || operator == "~=" {
			operator = "="
		}

		return operator + match[3], true
	}

	return "", false
}
