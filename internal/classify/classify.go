// Package classify infers a repository's primary language, framework,
// resource type, and technology-stack string from its file tree and
// manifests.
package classify

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
	"github.com/LiveData-Inc/air-toolkit/internal/pathfilter"
)

var binaryExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".ico": {}, ".pdf": {},
	".zip": {}, ".tar": {}, ".gz": {}, ".so": {}, ".dll": {}, ".exe": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {}, ".bin": {}, ".dat": {},
}

var documentationExtensions = map[string]struct{}{
	".md": {}, ".rst": {},
}

// Classify runs the deterministic classification algorithm over
// repoPath: a language tally, framework inference, type decision, and
// technology-stack string construction.
func Classify(repoPath string) (model.ClassificationResult, error) {
	tally, totalFiles, docFiles, walkErr := languageTally(repoPath)
	if walkErr != nil {
		return model.ClassificationResult{}, walkErr
	}

	if totalFiles == 0 {
		return model.ClassificationResult{
			Type:       model.ResourceLibrary,
			Confidence: 0,
		}, nil
	}

	primaryLanguage, languageShare := primaryOf(tally, totalFiles)
	primaryFramework := inferFramework(repoPath)

	docRatio := float64(docFiles) / float64(totalFiles)
	hasCode := primaryLanguage != ""
	hasDeploymentArtifacts := hasDeploymentArtifacts(repoPath)

	resourceType := decideType(hasCode, hasDeploymentArtifacts, docRatio)

	stack := technologyStack(tally, totalFiles, primaryFramework)

	confidence := languageShare
	if primaryFramework != "" && confidence < 1.0 {
		confidence = 1.0
	}

	if resourceType == model.ResourceDocumentation && docRatio > confidence {
		confidence = docRatio
	}

	return model.ClassificationResult{
		Type:             resourceType,
		PrimaryLanguage:  primaryLanguage,
		PrimaryFramework: primaryFramework,
		TechnologyStack:  stack,
		Confidence:       confidence,
	}, nil
}

// languageTally walks repoPath (Path Filter applied) and counts files
// per recognized language, alongside the total non-binary file count
// and the documentation-file count.
func languageTally(repoPath string) (tally map[string]int, totalFiles, docFiles int, err error) {
	tally = make(map[string]int)
	filter := pathfilter.NewFilter(repoPath)

	walkErr := filepath.Walk(repoPath, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // best-effort walk.
		}

		relPath, relErr := filepath.Rel(repoPath, path)
		if relErr != nil {
			return nil //nolint:nilerr // unreachable for well-formed repoPath.
		}

		if info.IsDir() {
			if filter.ShouldExclude(relPath, false) {
				return filepath.SkipDir
			}

			return nil
		}

		if filter.ShouldExclude(relPath, false) || enry.IsVendor(relPath) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, binary := binaryExtensions[ext]; binary {
			return nil
		}

		totalFiles++

		if _, isDoc := documentationExtensions[ext]; isDoc {
			docFiles++
		}

		if lang := enry.GetLanguage(filepath.Base(path), nil); lang != "" {
			tally[lang]++
		}

		return nil
	})
	if walkErr != nil {
		return nil, 0, 0, walkErr
	}

	return tally, totalFiles, docFiles, nil
}

// primaryOf returns the highest-count language (ties broken
// alphabetically) and its share of totalFiles.
func primaryOf(tally map[string]int, totalFiles int) (string, float64) {
	if len(tally) == 0 {
		return "", 0
	}

	names := make([]string, 0, len(tally))
	for name := range tally {
		names = append(names, name)
	}

	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if tally[name] > tally[best] {
			best = name
		}
	}

	return best, float64(tally[best]) / float64(totalFiles)
}

// decideType applies the documentation/service/library type decision.
func decideType(hasCode, hasDeploymentArtifacts bool, docRatio float64) model.ResourceType {
	switch {
	case docRatio > 0.70:
		return model.ResourceDocumentation
	case hasCode && hasDeploymentArtifacts:
		return model.ResourceService
	default:
		return model.ResourceLibrary
	}
}

var deploymentArtifacts = []string{
	"Dockerfile",
	"docker-compose.yml",
	"docker-compose.yaml",
	"k8s",
	"kubernetes",
	"helm",
}

func hasDeploymentArtifacts(repoPath string) bool {
	for _, name := range deploymentArtifacts {
		if _, err := os.Stat(filepath.Join(repoPath, name)); err == nil {
			return true
		}
	}

	return false
}

// technologyStack builds the "Language/Framework" stack string,
// comma-joining additional strong languages for mixed monorepos (the
// Open Question resolved in favor of comma-join, see SPEC_FULL.md §9).
func technologyStack(tally map[string]int, totalFiles int, primaryFramework string) string {
	strongLanguages := strongLanguagesOf(tally, totalFiles)
	if len(strongLanguages) == 0 {
		if primaryFramework != "" {
			return capitalize(primaryFramework)
		}

		return ""
	}

	segments := make([]string, 0, len(strongLanguages))

	for i, lang := range strongLanguages {
		segment := capitalize(lang)
		if i == 0 && primaryFramework != "" {
			segment = segment + "/" + capitalize(primaryFramework)
		}

		segments = append(segments, segment)
	}

	return strings.Join(segments, ",")
}

// strongLanguageShare is the minimum share of files a secondary
// language needs to be considered part of a mixed-monorepo stack
// string, alongside the primary language.
const strongLanguageShare = 0.15

func strongLanguagesOf(tally map[string]int, totalFiles int) []string {
	if totalFiles == 0 || len(tally) == 0 {
		return nil
	}

	primary, _ := primaryOf(tally, totalFiles)

	strong := []string{primary}

	others := make([]string, 0, len(tally))
	for name := range tally {
		if name != primary {
			others = append(others, name)
		}
	}

	sort.Slice(others, func(i, j int) bool {
		if tally[others[i]] != tally[others[j]] {
			return tally[others[i]] > tally[others[j]]
		}

		return others[i] < others[j]
	})

	for _, name := range others {
		if float64(tally[name])/float64(totalFiles) >= strongLanguageShare {
			strong = append(strong, name)
		}
	}

	return strong
}

func capitalize(word string) string {
	if word == "" {
		return word
	}

	return strings.ToUpper(word[:1]) + word[1:]
}
