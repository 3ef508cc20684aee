// Package detect provides pluggable strategies ("detectors") that
// extract package and import dependency names from a repository, plus
// a process-wide registry of the built-in detectors.
package detect

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// Detector is a strategy that extracts dependency names from one repo.
type Detector interface {
	// Name identifies the detector, e.g. "pyproject".
	Name() string

	// CanDetect is a cheap manifest-existence check; it must never
	// mutate the repo.
	CanDetect(repoPath string) bool

	// Detect reads the repo and returns its dependency result. It must
	// never mutate the repo.
	Detect(repoPath string) (model.DependencyResult, error)

	// DependencyType classifies what kind of names Detect produces.
	DependencyType() model.DependencyType
}

// Registry holds a process-wide, registration-ordered set of detectors.
// Registration is expected to complete before any orchestrator run
// begins; teardown is implicit at process exit.
type Registry struct {
	detectors []Detector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends d to the registry's iteration order.
func (r *Registry) Register(d Detector) {
	r.detectors = append(r.detectors, d)
}

// DetectAll runs every registered detector whose CanDetect reports true
// against repoPath, in registration order, accumulating their results.
// A detector that panics or errors is logged and skipped; the rest
// continue.
func (r *Registry) DetectAll(repoPath string) []model.DependencyResult {
	results := make([]model.DependencyResult, 0, len(r.detectors))

	for _, d := range r.detectors {
		result, ok := r.runOne(d, repoPath)
		if ok {
			results = append(results, result)
		}
	}

	return results
}

// DetectByType runs DetectAll and filters to detectors of the given
// dependency type.
func (r *Registry) DetectByType(repoPath string, depType model.DependencyType) []model.DependencyResult {
	all := r.DetectAll(repoPath)
	filtered := make([]model.DependencyResult, 0, len(all))

	for _, result := range all {
		if result.DependencyType == depType {
			filtered = append(filtered, result)
		}
	}

	return filtered
}

func (r *Registry) runOne(d Detector, repoPath string) (result model.DependencyResult, ok bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Printf("detector %s panicked on %s: %v", d.Name(), repoPath, recovered)

			ok = false
		}
	}()

	if !d.CanDetect(repoPath) {
		return model.DependencyResult{}, false
	}

	detected, detectErr := d.Detect(repoPath)
	if detectErr != nil {
		log.Printf("detector %s failed on %s: %v", d.Name(), repoPath, detectErr)

		return model.DependencyResult{}, false
	}

	return detected, true
}

// normalizeNames lowercases and de-duplicates package/import names,
// returning them sorted for deterministic output.
func normalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		normalized := normalizeName(name)
		if normalized == "" {
			continue
		}

		seen[normalized] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ErrNoManifest is returned by a detector's Detect when CanDetect lied
// (manifest vanished between the check and the read); this should be
// rare and is treated like any other detector failure by the registry.
var ErrNoManifest = fmt.Errorf("detect: manifest not found")
