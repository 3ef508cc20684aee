package analyze

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/LiveData-Inc/air-toolkit/internal/cache"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
	"github.com/LiveData-Inc/air-toolkit/internal/pathfilter"
)

// Defaults for QualityAnalyzer's heuristic thresholds.
const (
	defaultLongFunctionLines = 100
	defaultMaxParameterCount = 5
	defaultMinTestFileRatio  = 0.25
)

var (
	goFuncPattern     = regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?(\w+)\s*\(([^)]*)\)`)
	pyFuncPattern     = regexp.MustCompile(`^def\s+(\w+)\s*\(([^)]*)\)`)
	jsFuncPattern     = regexp.MustCompile(`function\s+(\w+)\s*\(([^)]*)\)`)
	publicGoFunc      = regexp.MustCompile(`^[A-Z]`)
	docCommentPattern = regexp.MustCompile(`^\s*//|^\s*#|^\s*"""`)
	testFilePattern   = regexp.MustCompile(`(?i)(_test\.go|test_.*\.py|.*_test\.py|\.test\.[jt]sx?|\.spec\.[jt]sx?)$`)
	codeExtensions    = map[string]struct{}{".py": {}, ".js": {}, ".ts": {}, ".jsx": {}, ".tsx": {}, ".go": {}, ".rb": {}, ".java": {}}
)

// QualityAnalyzer flags long functions, overloaded parameter lists,
// comment-to-code anomalies, undocumented public entry points, a
// missing README, and a low test-to-code file ratio.
type QualityAnalyzer struct {
	LongFunctionLines int
	MaxParameterCount int
	MinTestFileRatio  float64
}

// Name implements Analyzer.
func (QualityAnalyzer) Name() string { return "quality" }

// Analyze implements Analyzer.
func (q QualityAnalyzer) Analyze(repoPath string, includeExternal bool, c *cache.Cache) (model.AnalyzerResult, error) {
	longFn := q.LongFunctionLines
	if longFn <= 0 {
		longFn = defaultLongFunctionLines
	}

	maxParams := q.MaxParameterCount
	if maxParams <= 0 {
		maxParams = defaultMaxParameterCount
	}

	minTestRatio := q.MinTestFileRatio
	if minTestRatio <= 0 {
		minTestRatio = defaultMinTestFileRatio
	}

	filter := pathfilter.NewFilter(repoPath)

	var (
		findings      []model.Finding
		codeFileCount int
		testFileCount int
		commentLines  int
		codeLines     int
		hasReadme     bool
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

			return nil
		}

		if filter.ShouldExclude(relPath, includeExternal) {
			return nil
		}

		if strings.EqualFold(filepath.Base(path), "README.md") || strings.EqualFold(filepath.Base(path), "README") {
			if filepath.Dir(relPath) == "." {
				hasReadme = true
			}
		}

		if _, ok := codeExtensions[filepath.Ext(path)]; !ok {
			return nil
		}

		if testFilePattern.MatchString(filepath.Base(path)) {
			testFileCount++
		} else {
			codeFileCount++
		}

		fileBytes, readErr := os.ReadFile(path) //nolint:gosec // repoPath is operator-supplied.
		if readErr != nil {
			return nil //nolint:nilerr // unreadable file is skipped, not fatal.
		}

		fComment, fCode := countCommentAndCodeLines(fileBytes)
		commentLines += fComment
		codeLines += fCode

		fileFindings := cachedFileFindings(c, repoPath, "quality", fileBytes, func() []model.Finding {
			return scanFileForQuality(fileBytes, relPath, longFn, maxParams)
		})

		findings = append(findings, fileFindings...)

		return nil
	})
	if walkErr != nil {
		return model.AnalyzerResult{}, fmt.Errorf("quality analyze: %w", walkErr)
	}

	if !hasReadme {
		findings = append(findings, finding("quality", model.SeverityLow,
			"Missing top-level README", "No README.md or README file was found at the repository root.",
			"Add a README describing purpose, setup, and usage.",
			".", 0))
	}

	if codeFileCount > 0 {
		ratio := float64(testFileCount) / float64(codeFileCount)
		if ratio < minTestRatio {
			findings = append(findings, finding("quality", model.SeverityMedium,
				"Low test coverage heuristic", fmt.Sprintf("Test-to-code file ratio is %.2f, below the %.2f threshold.", ratio, minTestRatio),
				"Add tests alongside the least-covered modules.",
				".", 0))
		}
	}

	if codeLines > 0 {
		ratio := float64(commentLines) / float64(codeLines)
		if ratio < 0.02 {
			findings = append(findings, finding("quality", model.SeverityLow,
				"Sparse comments", fmt.Sprintf("Comment-to-code ratio is %.3f, unusually low for this repository's size.", ratio),
				"Document non-obvious invariants and public entry points.",
				".", 0))
		}
	}

	return model.AnalyzerResult{
		AnalyzerName: "quality",
		Findings:     findings,
	}, nil
}

// countCommentAndCodeLines is a cheap per-line classification run on
// every file regardless of cache state: the repo-level comment/code
// ratio is an aggregate across every file, so it can't be served from
// a per-file finding cache entry alone.
func countCommentAndCodeLines(fileBytes []byte) (commentLines, codeLines int) {
	for _, line := range strings.Split(string(fileBytes), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if docCommentPattern.MatchString(line) {
			commentLines++
		} else {
			codeLines++
		}
	}

	return commentLines, codeLines
}

func scanFileForQuality(fileBytes []byte, relPath string, longFn, maxParams int) []model.Finding {
	lines := strings.Split(string(fileBytes), "\n")

	var findings []model.Finding

	funcStart := -1
	funcName := ""
	funcParams := ""
	isPublic := false

	for i, line := range lines {
		name, params, matched := matchFunctionSignature(line)
		if matched {
			if funcStart >= 0 {
				findings = append(findings, checkFunction(relPath, funcStart, i, funcName, funcParams, isPublic, longFn, maxParams, lines)...)
			}

			funcStart = i
			funcName = name
			funcParams = params
			isPublic = publicGoFunc.MatchString(name)
		}
	}

	if funcStart >= 0 {
		findings = append(findings, checkFunction(relPath, funcStart, len(lines), funcName, funcParams, isPublic, longFn, maxParams, lines)...)
	}

	return findings
}

func matchFunctionSignature(line string) (name, params string, matched bool) {
	if m := goFuncPattern.FindStringSubmatch(line); m != nil {
		return m[1], m[2], true
	}

	if m := pyFuncPattern.FindStringSubmatch(line); m != nil {
		return m[1], m[2], true
	}

	if m := jsFuncPattern.FindStringSubmatch(line); m != nil {
		return m[1], m[2], true
	}

	return "", "", false
}

func checkFunction(relPath string, start, end int, name, params string, isPublic bool, longFn, maxParams int, lines []string) []model.Finding {
	var findings []model.Finding

	length := end - start
	if length > longFn {
		findings = append(findings, finding("quality", model.SeverityMedium,
			"Long function", fmt.Sprintf("%s spans %d lines, exceeding the %d-line threshold.", name, length, longFn),
			"Extract cohesive sub-steps into helper functions.",
			relPath, start+1))
	}

	if count := countParams(params); count > maxParams {
		findings = append(findings, finding("quality", model.SeverityLow,
			"Excessive parameter count", fmt.Sprintf("%s takes %d parameters, exceeding the %d-parameter threshold.", name, count, maxParams),
			"Group related parameters into a struct/options type.",
			relPath, start+1))
	}

	if isPublic && (start == 0 || !docCommentPattern.MatchString(lines[start-1])) {
		findings = append(findings, finding("quality", model.SeverityLow,
			"Missing docstring on public entry point", fmt.Sprintf("%s is exported but has no leading doc comment.", name),
			"Add a doc comment starting with the function name.",
			relPath, start+1))
	}

	return findings
}

func countParams(params string) int {
	params = strings.TrimSpace(params)
	if params == "" {
		return 0
	}

	return len(strings.Split(params, ","))
}
