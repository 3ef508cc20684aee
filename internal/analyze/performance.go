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

// nestedLoopThreshold is the default maximum loop nesting depth before
// PerformanceAnalyzer flags it.
const nestedLoopThreshold = 2

var (
	loopOpenPattern        = regexp.MustCompile(`^\s*(for|while)\b.*[:{]?\s*$`)
	loopClosePattern       = regexp.MustCompile(`^\s*\}\s*$`)
	nPlusOnePattern        = regexp.MustCompile(`(?i)for\s+\w+\s+in\s+\w+:|for\s*\(.*\)\s*\{`)
	queryCallPattern       = regexp.MustCompile(`(?i)\.(query|find|get|execute)\(`)
	stringConcatPattern    = regexp.MustCompile(`\w+\s*\+=\s*\S|(\w+)\s*=\s*\1\s*\+\s*["']`)
	listComprehensionOpp   = regexp.MustCompile(`^\s*for\s+\w+\s+in\s+[\w.]+:\s*$`)
	appendInLoopPattern    = regexp.MustCompile(`\.append\(`)
	wholeTableFetchPattern = regexp.MustCompile(`(?i)SELECT\s+\*\s+FROM\s+\w+\s*["'\)]|\.objects\.all\(\)|Model\.find\(\)`)
	paginationHintPattern  = regexp.MustCompile(`(?i)\blimit\b|\bpage\b|\boffset\b`)
	memoHintPattern        = regexp.MustCompile(`(?i)\buseMemo\b|\buseCallback\b|React\.memo`)
	pureComponentPattern   = regexp.MustCompile(`function\s+\w+\s*\([^)]*\)\s*\{[^}]*return\s*\(`)
	iterateMutatePattern   = regexp.MustCompile(`for\s+\w+,\s*\w+\s*:?=\s*range\s+(\w+)\s*\{\s*\n?\s*\1\[`)
)

// performanceTextExtensions limits the scan to source files where loop
// and query shapes are meaningful.
var performanceTextExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".ts": {}, ".jsx": {}, ".tsx": {}, ".go": {}, ".rb": {}, ".java": {},
}

// PerformanceAnalyzer flags the seven required performance-smell
// families via line- and block-level heuristics.
type PerformanceAnalyzer struct {
	NestedLoopThreshold int
}

// Name implements Analyzer.
func (PerformanceAnalyzer) Name() string { return "performance" }

// Analyze implements Analyzer.
func (p PerformanceAnalyzer) Analyze(repoPath string, includeExternal bool, c *cache.Cache) (model.AnalyzerResult, error) {
	threshold := p.NestedLoopThreshold
	if threshold <= 0 {
		threshold = nestedLoopThreshold
	}

	filter := pathfilter.NewFilter(repoPath)

	var findings []model.Finding

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

		if _, ok := performanceTextExtensions[filepath.Ext(path)]; !ok {
			return nil
		}

		fileBytes, readErr := os.ReadFile(path) //nolint:gosec // repoPath is operator-supplied.
		if readErr != nil {
			return nil //nolint:nilerr // unreadable file is skipped, not fatal.
		}

		fileFindings := cachedFileFindings(c, repoPath, "performance", fileBytes, func() []model.Finding {
			return scanFileForPerformancePatterns(fileBytes, relPath, threshold)
		})

		findings = append(findings, fileFindings...)

		return nil
	})
	if walkErr != nil {
		return model.AnalyzerResult{}, fmt.Errorf("performance analyze: %w", walkErr)
	}

	return model.AnalyzerResult{
		AnalyzerName: "performance",
		Findings:     findings,
	}, nil
}

func scanFileForPerformancePatterns(fileBytes []byte, relPath string, nestedLoopThreshold int) []model.Finding {
	content := string(fileBytes)
	lines := strings.Split(content, "\n")

	var findings []model.Finding

	depth := 0
	maxDepthLine := 0

	for i, line := range lines {
		lineNo := i + 1

		switch {
		case loopOpenPattern.MatchString(line):
			depth++
			if depth == nestedLoopThreshold+1 {
				maxDepthLine = lineNo
			}
		case loopClosePattern.MatchString(line) && depth > 0:
			depth--
		}

		if nPlusOnePattern.MatchString(line) && queryCallPattern.MatchString(strings.Join(lines[i:min(i+5, len(lines))], "\n")) {
			findings = append(findings, finding("performance", model.SeverityMedium,
				"Possible N+1 query", "A loop body issues a query/find/get call per iteration instead of batching.",
				"Batch-load related records before the loop (e.g. select_related/prefetch_related or a single IN query).",
				relPath, lineNo))
		}

		if stringConcatPattern.MatchString(line) {
			findings = append(findings, finding("performance", model.SeverityLow,
				"String concatenation in loop", "Repeated string += accumulation is quadratic; prefer a builder/join.",
				"Collect parts in a slice/list and join once, or use strings.Builder.",
				relPath, lineNo))
		}

		if listComprehensionOpp.MatchString(line) && i+1 < len(lines) && appendInLoopPattern.MatchString(lines[i+1]) {
			findings = append(findings, finding("performance", model.SeverityLow,
				"List-comprehension opportunity", "A for-loop that only appends to a list can be a comprehension.",
				"Rewrite as a list/dict comprehension for clarity and speed.",
				relPath, lineNo))
		}

		if wholeTableFetchPattern.MatchString(line) && !paginationHintPattern.MatchString(strings.Join(lines[max(0, i-2):min(i+3, len(lines))], "\n")) {
			findings = append(findings, finding("performance", model.SeverityMedium,
				"Missing pagination", "A whole-table fetch has no visible limit/offset/page nearby.",
				"Paginate the query or add an explicit limit.",
				relPath, lineNo))
		}

		if pureComponentPattern.MatchString(line) && !memoHintPattern.MatchString(strings.Join(lines[max(0, i-3):min(i+3, len(lines))], "\n")) {
			findings = append(findings, finding("performance", model.SeverityLow,
				"Missing memoization", "A pure-looking UI component renders with no memoization nearby.",
				"Wrap with React.memo/useMemo/useCallback as appropriate.",
				relPath, lineNo))
		}
	}

	if maxDepthLine > 0 {
		findings = append(findings, finding("performance", model.SeverityMedium,
			"Deeply nested loop", fmt.Sprintf("Loop nesting exceeds the configured threshold of %d.", nestedLoopThreshold),
			"Extract the inner loop into a helper function or flatten the iteration.",
			relPath, maxDepthLine))
	}

	if match := iterateMutatePattern.FindStringIndex(content); match != nil {
		lineNo := strings.Count(content[:match[0]], "\n") + 1
		findings = append(findings, finding("performance", model.SeverityLow,
			"Iterate-and-mutate pattern", "A range loop mutates the collection it iterates; a map/transform is clearer and avoids aliasing surprises.",
			"Build a new slice via a map/transform instead of mutating in place.",
			relPath, lineNo))
	}

	return findings
}

func finding(category string, severity model.Severity, title, description, suggestion, location string, line int) model.Finding {
	return model.Finding{
		Category:    category,
		Severity:    severity,
		Title:       title,
		Description: description,
		Suggestion:  suggestion,
		Location:    location,
		LineNumber:  line,
	}
}
