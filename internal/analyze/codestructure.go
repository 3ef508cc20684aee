package analyze

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/LiveData-Inc/air-toolkit/internal/cache"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
	"github.com/LiveData-Inc/air-toolkit/internal/pathfilter"
)

// largeFileLines is the default line count above which a file is
// flagged as large.
const largeFileLines = 500

// CodeStructureAnalyzer reports file counts, total source lines,
// large-file flags, test/docs directory presence, and a per-language
// file-count breakdown. Its findings are mostly informational.
type CodeStructureAnalyzer struct {
	LargeFileLines int
}

// Name implements Analyzer.
func (CodeStructureAnalyzer) Name() string { return "code-structure" }

// Analyze implements Analyzer.
func (c CodeStructureAnalyzer) Analyze(repoPath string, includeExternal bool, ca *cache.Cache) (model.AnalyzerResult, error) {
	largeThreshold := c.LargeFileLines
	if largeThreshold <= 0 {
		largeThreshold = largeFileLines
	}

	filter := pathfilter.NewFilter(repoPath)

	var (
		findings      []model.Finding
		fileCount     int
		totalLines    int
		hasTestDir    bool
		hasDocsDir    bool
		languageFiles = map[string]int{}
	)

	walkErr := filepath.Walk(repoPath, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // best-effort scan.
		}

		relPath, relErr := filepath.Rel(repoPath, path)
		if relErr != nil {
			return nil //nolint:nilerr // unreachable for well-formed repoPath/path pairs.
		}

		if info.IsDir() {
			if filter.ShouldExclude(relPath, includeExternal) {
				return filepath.SkipDir
			}

			lower := strings.ToLower(info.Name())
			if lower == "test" || lower == "tests" || lower == "__tests__" || strings.HasSuffix(lower, "_test") {
				hasTestDir = true
			}

			if lower == "docs" || lower == "doc" || lower == "documentation" {
				hasDocsDir = true
			}

			return nil
		}

		if filter.ShouldExclude(relPath, includeExternal) {
			return nil
		}

		if enry.IsVendor(relPath) {
			return nil
		}

		lang := enry.GetLanguage(filepath.Base(path), nil)
		if lang == "" {
			return nil
		}

		fileCount++
		languageFiles[lang]++

		fileBytes, readErr := os.ReadFile(path) //nolint:gosec // repoPath is operator-supplied.
		if readErr != nil {
			return nil //nolint:nilerr // unreadable file is skipped, not fatal.
		}

		lines := countLines(fileBytes)
		totalLines += lines

		fileFindings := cachedFileFindings(ca, repoPath, "code-structure", fileBytes, func() []model.Finding {
			if lines <= largeThreshold {
				return nil
			}

			return []model.Finding{finding("code-structure", model.SeverityLow,
				"Large file", fmt.Sprintf("%s has %d lines, exceeding the %d-line threshold.", relPath, lines, largeThreshold),
				"Split into smaller, single-responsibility files.",
				relPath, 0)}
		})

		findings = append(findings, fileFindings...)

		return nil
	})
	if walkErr != nil {
		return model.AnalyzerResult{}, fmt.Errorf("code-structure analyze: %w", walkErr)
	}

	langBreakdown := make([]string, 0, len(languageFiles))
	for lang, count := range languageFiles {
		langBreakdown = append(langBreakdown, fmt.Sprintf("%s:%d", lang, count))
	}

	sort.Strings(langBreakdown)

	findings = append(findings, model.Finding{
		Category:    "code-structure",
		Severity:    model.SeverityInfo,
		Title:       "Repository summary",
		Description: fmt.Sprintf("%d source files, %d total lines.", fileCount, totalLines),
		Location:    ".",
		Metadata: map[string]any{
			"file_count":      fileCount,
			"total_lines":     totalLines,
			"has_test_dir":    hasTestDir,
			"has_docs_dir":    hasDocsDir,
			"language_counts": langBreakdown,
		},
	})

	return model.AnalyzerResult{
		AnalyzerName: "code-structure",
		Findings:     findings,
		Summary: map[string]int{
			"file_count":  fileCount,
			"total_lines": totalLines,
		},
	}, nil
}

func countLines(fileBytes []byte) int {
	if len(fileBytes) == 0 {
		return 0
	}

	count := bytes.Count(fileBytes, []byte{'\n'})
	if fileBytes[len(fileBytes)-1] != '\n' {
		count++
	}

	return count
}
