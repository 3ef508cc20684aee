package analyze

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/LiveData-Inc/air-toolkit/internal/cache"
	"github.com/LiveData-Inc/air-toolkit/internal/depgraph"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// architectureLayerDirs names directories conventionally indicating a
// layered architecture; presence is reported as informational metadata.
var architectureLayerDirs = []string{"api", "models", "services", "controllers", "handlers", "routes", "views", "repositories", "middleware"}

// ArchitectureAnalyzer audits manifest dependency pinning, flags
// circular imports within the repo, and tags layered-architecture
// directories.
type ArchitectureAnalyzer struct{}

// Name implements Analyzer.
func (ArchitectureAnalyzer) Name() string { return "architecture" }

// Analyze implements Analyzer. Every finding here is a whole-repo or
// cross-file aggregate (manifest pinning, import cycles, layer
// presence), never a self-contained per-file result, so there is no
// per-file granularity for the Content-Hash Cache to memoize; the
// cache parameter is accepted only to satisfy Analyzer and unused.
func (ArchitectureAnalyzer) Analyze(repoPath string, includeExternal bool, _ *cache.Cache) (model.AnalyzerResult, error) {
	var findings []model.Finding

	findings = append(findings, auditDependencyPinning(repoPath)...)

	cycleFindings, err := detectCircularImports(repoPath, includeExternal)
	if err != nil {
		return model.AnalyzerResult{}, fmt.Errorf("architecture analyze: %w", err)
	}

	findings = append(findings, cycleFindings...)

	layers := presentLayers(repoPath)
	if len(layers) > 0 {
		findings = append(findings, model.Finding{
			Category:    "architecture",
			Severity:    model.SeverityInfo,
			Title:       "Layered architecture detected",
			Description: fmt.Sprintf("Found conventional layer directories: %s.", strings.Join(layers, ", ")),
			Location:    ".",
			Metadata:    map[string]any{"layers": layers},
		})
	}

	return model.AnalyzerResult{
		AnalyzerName: "architecture",
		Findings:     findings,
	}, nil
}

// auditDependencyPinning flags unpinned version ranges in package.json
// and unpinned ("=="-less) entries in requirements.txt.
func auditDependencyPinning(repoPath string) []model.Finding {
	var findings []model.Finding

	if deps, ok := readPackageJSONDependencies(repoPath); ok {
		for name, constraint := range deps {
			if isUnpinnedNPMConstraint(constraint) {
				findings = append(findings, finding("architecture", model.SeverityLow,
					"Unpinned dependency", fmt.Sprintf("%s is constrained as %q, allowing automatic upgrades.", name, constraint),
					"Pin to an exact version for reproducible builds, or use a lockfile as the source of truth.",
					"package.json", 0))
			}
		}
	}

	if lines, ok := readRequirementsTxt(repoPath); ok {
		for _, line := range lines {
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			if !strings.Contains(line, "==") {
				findings = append(findings, finding("architecture", model.SeverityLow,
					"Unpinned dependency", fmt.Sprintf("%q has no exact version pin.", line),
					"Pin with == for reproducible builds.",
					"requirements.txt", 0))
			}
		}
	}

	return findings
}

type packageJSONManifest struct {
	Dependencies map[string]string `json:"dependencies"`
}

func readPackageJSONDependencies(repoPath string) (map[string]string, bool) {
	content, err := os.ReadFile(filepath.Join(repoPath, "package.json")) //nolint:gosec // repoPath is operator-supplied.
	if err != nil {
		return nil, false
	}

	var manifest packageJSONManifest
	if err := json.Unmarshal(content, &manifest); err != nil {
		return nil, false
	}

	return manifest.Dependencies, true
}

func readRequirementsTxt(repoPath string) ([]string, bool) {
	content, err := os.ReadFile(filepath.Join(repoPath, "requirements.txt")) //nolint:gosec // repoPath is operator-supplied.
	if err != nil {
		return nil, false
	}

	return strings.Split(string(content), "\n"), true
}

func isUnpinnedNPMConstraint(constraint string) bool {
	return strings.HasPrefix(constraint, "^") || strings.HasPrefix(constraint, "~") || constraint == "*" || constraint == "latest"
}

// detectCircularImports builds a directory-level import graph from
// repo-relative import statements and reports any cycle found, reusing
// depgraph's leveler/FindCycle rather than a bespoke SCC routine.
func detectCircularImports(repoPath string, includeExternal bool) ([]model.Finding, error) {
	graph := depgraph.New()

	topDirs, err := topLevelSourceDirs(repoPath)
	if err != nil {
		return nil, err
	}

	for _, dir := range topDirs {
		graph.AddNode(dir)
	}

	walkErr := filepath.Walk(repoPath, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil || info.IsDir() {
			return nil //nolint:nilerr // best-effort scan.
		}

		ext := filepath.Ext(path)
		if ext != ".go" && ext != ".py" && ext != ".js" && ext != ".ts" {
			return nil
		}

		relPath, relErr := filepath.Rel(repoPath, path)
		if relErr != nil {
			return nil //nolint:nilerr // unreachable for well-formed repoPath/path pairs.
		}

		ownDir := topLevelSegment(relPath)

		for _, target := range referencedTopLevelDirs(path, topDirs) {
			if target != ownDir {
				graph.AddEdge(ownDir, target)
			}
		}

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("circular import scan: %w", walkErr)
	}

	seen := make(map[string]bool)

	var findings []model.Finding

	for _, dir := range topDirs {
		if seen[dir] {
			continue
		}

		cycle := graph.FindCycle(dir)
		if len(cycle) < 2 {
			continue
		}

		for _, member := range cycle {
			seen[member] = true
		}

		findings = append(findings, model.Finding{
			Category:    "architecture",
			Severity:    model.SeverityHigh,
			Title:       "Circular import",
			Description: fmt.Sprintf("Directories form an import cycle: %s.", strings.Join(cycle, " -> ")),
			Suggestion:  "Extract the shared dependency into a separate package both sides can import.",
			Location:    cycle[0],
			Metadata:    map[string]any{"cycle": cycle},
		})
	}

	return findings, nil
}

func topLevelSourceDirs(repoPath string) ([]string, error) {
	entries, err := os.ReadDir(repoPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", repoPath, err)
	}

	var dirs []string

	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			dirs = append(dirs, entry.Name())
		}
	}

	return dirs, nil
}

func topLevelSegment(relPath string) string {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) < 2 {
		return "."
	}

	return parts[0]
}

var importedPathPattern = regexp.MustCompile(`(?:from\s+|import\s+)['"]?([\w./\-]+)['"]?`)

// referencedTopLevelDirs scans path's import statements for quoted or
// dotted module paths and reports which of topDirs appears as one of
// their "/"- or "."-separated segments, the repo-relative shape a
// same-repo import takes in Go, Python, and JS/TS alike.
func referencedTopLevelDirs(path string, topDirs []string) []string {
	content, err := os.ReadFile(path) //nolint:gosec // repoPath is operator-supplied.
	if err != nil {
		return nil
	}

	want := make(map[string]bool, len(topDirs))
	for _, dir := range topDirs {
		want[dir] = true
	}

	hit := make(map[string]bool)

	for _, match := range importedPathPattern.FindAllStringSubmatch(string(content), -1) {
		imported := match[1]

		for _, sep := range []string{"/", "."} {
			for _, segment := range strings.Split(imported, sep) {
				if want[segment] {
					hit[segment] = true
				}
			}
		}
	}

	hits := make([]string, 0, len(hit))
	for dir := range hit {
		hits = append(hits, dir)
	}

	sort.Strings(hits)

	return hits
}

func presentLayers(repoPath string) []string {
	var present []string

	for _, layer := range architectureLayerDirs {
		if info, err := os.Stat(filepath.Join(repoPath, layer)); err == nil && info.IsDir() {
			present = append(present, layer)
		}
	}

	return present
}
