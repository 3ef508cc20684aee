// Package analyze defines the Analyzer strategy interface and a
// Factory that registers and dispatches analyzers by name, mirroring
// the registration/dispatch shape of a static-analysis factory: add by
// name, run sequentially when there is only one unit of work or
// parallelism is disabled, otherwise fan out behind a semaphore-bounded
// sync.WaitGroup and isolate each analyzer's failure into its own
// result rather than aborting the batch.
package analyze

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
	"github.com/LiveData-Inc/air-toolkit/internal/cache"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
	"github.com/LiveData-Inc/air-toolkit/pkg/version"
)

// Analyzer is one pluggable analysis strategy.
type Analyzer interface {
	// Name is the registry key and the value stamped on
	// AnalyzerResult.AnalyzerName.
	Name() string

	// Analyze scans repoPath and returns every finding it produces.
	// includeExternal disables the Path Filter's default exclusions. c
	// is the Content-Hash Cache to consult for per-file memoization; a
	// nil c means caching is disabled for this run.
	Analyze(repoPath string, includeExternal bool, c *cache.Cache) (model.AnalyzerResult, error)
}

// cachedFileFindings looks up a per-(repo, file content, analyzer)
// finding set before falling back to compute. A nil cache always
// computes. A Store failure is swallowed: the cache is an optimization,
// never a correctness requirement.
func cachedFileFindings(c *cache.Cache, repoPath, analyzerName string, fileBytes []byte, compute func() []model.Finding) []model.Finding {
	if c == nil {
		return compute()
	}

	if entry, err := c.Lookup(repoPath, fileBytes, analyzerName); err == nil {
		return entry.Findings
	}

	findings := compute()

	_ = c.Store(repoPath, fileBytes, analyzerName, model.CacheEntry{
		AnalyzerName: analyzerName,
		Findings:     findings,
	})

	return findings
}

// Factory registers analyzers by name and dispatches a run across
// however many of them are requested.
type Factory struct {
	analyzers   map[string]Analyzer
	order       []string // registration order, for deterministic default selection
	maxParallel int
}

// NewFactory creates an empty Factory. maxParallel bounds concurrent
// analyzer execution; a value <= 1 forces sequential dispatch.
func NewFactory(maxParallel int) *Factory {
	if maxParallel <= 0 {
		maxParallel = runtime.NumCPU()
	}

	return &Factory{
		analyzers:   make(map[string]Analyzer),
		maxParallel: maxParallel,
	}
}

// Register adds an analyzer, keyed by its own Name().
func (f *Factory) Register(a Analyzer) {
	name := a.Name()
	if _, exists := f.analyzers[name]; !exists {
		f.order = append(f.order, name)
	}

	f.analyzers[name] = a
}

// Names returns every registered analyzer name, in registration order.
func (f *Factory) Names() []string {
	names := make([]string, len(f.order))
	copy(names, f.order)

	return names
}

// Has reports whether name is registered.
func (f *Factory) Has(name string) bool {
	_, ok := f.analyzers[name]

	return ok
}

// Run executes one named analyzer and always returns a result: a
// failing or panicking analyzer yields an empty-findings result with
// metadata.error set rather than an error return, per the
// "orchestration continues" failure contract.
func (f *Factory) Run(name, repoPath string, includeExternal bool, c *cache.Cache) model.AnalyzerResult {
	analyzer, ok := f.analyzers[name]
	if !ok {
		return errorResult(name, fmt.Errorf("%w: %s", airerr.ErrAnalyzer, name))
	}

	return runIsolated(analyzer, repoPath, includeExternal, c)
}

// RunAll executes every requested analyzer (all registered ones, when
// names is empty) and returns a result per analyzer keyed by name.
// With more than one unit of work and maxParallel > 1 the analyzers run
// concurrently behind a bounded semaphore; otherwise they run in
// registration order.
func (f *Factory) RunAll(ctx context.Context, repoPath string, includeExternal bool, names []string, c *cache.Cache) map[string]model.AnalyzerResult {
	if len(names) == 0 {
		names = f.Names()
	}

	results := make(map[string]model.AnalyzerResult, len(names))

	if len(names) <= 1 || f.maxParallel <= 1 {
		for _, name := range names {
			if ctx.Err() != nil {
				results[name] = errorResult(name, ctx.Err())

				continue
			}

			results[name] = f.Run(name, repoPath, includeExternal, c)
		}

		return results
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	sem := make(chan struct{}, f.maxParallel)

	for _, name := range names {
		wg.Add(1)

		go func(name string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				results[name] = errorResult(name, ctx.Err())
				mu.Unlock()

				return
			}

			result := f.Run(name, repoPath, includeExternal, c)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name)
	}

	wg.Wait()

	return results
}

// runIsolated calls analyzer.Analyze, converting both a returned error
// and a recovered panic into a failed-but-present AnalyzerResult, and
// stamps DurationMS and AnalyzerVersion either way.
func runIsolated(analyzer Analyzer, repoPath string, includeExternal bool, c *cache.Cache) (result model.AnalyzerResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = errorResult(analyzer.Name(), fmt.Errorf("%w: panic: %v", airerr.ErrAnalyzer, r))
		}

		result.Metadata.DurationMS = time.Since(start).Milliseconds()
		result.Metadata.AnalyzerVersion = version.String()
	}()

	out, err := analyzer.Analyze(repoPath, includeExternal, c)
	if err != nil {
		return errorResult(analyzer.Name(), err)
	}

	sortFindings(out.Findings)

	if out.Summary == nil {
		out.Summary = summarize(out.Findings)
	}

	return out
}

func errorResult(name string, err error) model.AnalyzerResult {
	return model.AnalyzerResult{
		AnalyzerName: name,
		Findings:     []model.Finding{},
		Summary:      map[string]int{},
		Metadata: model.ResultMetadata{
			Error:        true,
			ErrorMessage: err.Error(),
		},
	}
}

// sortFindings orders findings by (severity desc, location asc, line asc),
// the within-analyzer ordering rule.
func sortFindings(findings []model.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]

		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}

		if a.Location != b.Location {
			return a.Location < b.Location
		}

		return a.LineNumber < b.LineNumber
	})
}

func summarize(findings []model.Finding) map[string]int {
	summary := make(map[string]int, len(findings))
	for _, finding := range findings {
		summary[string(finding.Severity)]++
	}

	return summary
}
