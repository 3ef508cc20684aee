// Package orchestrator coordinates Analyzer Registry invocations
// through the Worker Pool, ordered by the Dependency Graph's leveling,
// and writes one merged findings artifact per repo.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
	"github.com/LiveData-Inc/air-toolkit/internal/analyze"
	"github.com/LiveData-Inc/air-toolkit/internal/cache"
	"github.com/LiveData-Inc/air-toolkit/internal/depgraph"
	"github.com/LiveData-Inc/air-toolkit/internal/detect"
	"github.com/LiveData-Inc/air-toolkit/internal/gitstatus"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
	"github.com/LiveData-Inc/air-toolkit/internal/worker"
	"github.com/LiveData-Inc/air-toolkit/pkg/version"
)

// RunAllOptions configures multi-repo orchestration.
type RunAllOptions struct {
	// NoOrder submits every repo flat, skipping dependency leveling.
	NoOrder bool

	// DepsOnly excludes repos with no dependency edges at all.
	DepsOnly bool
}

// Orchestrator runs analyzers across one or more repos via a Worker
// Pool, falling back to in-process sequential execution (via Factory)
// if the pool cannot spawn its child subprocess at all.
type Orchestrator struct {
	// Pool dispatches units to air-worker subprocesses.
	Pool *worker.Pool

	// Factory is the in-process analyzer registry used both to resolve
	// the default analyzer name list and as the degraded-mode fallback
	// when the Worker Pool cannot spawn a child at all.
	Factory *analyze.Factory

	// AnalyzerNames restricts which analyzers run; empty means every
	// analyzer Factory has registered.
	AnalyzerNames []string

	// OutputDir is the directory findings artifacts are written under
	// (analysis/reviews per the workspace layout).
	OutputDir string

	// CacheDir is the Content-Hash Cache's root directory. Empty
	// disables caching: every worker.Request is dispatched with no
	// CacheDir, and each analyzer treats a nil *cache.Cache as
	// "always compute".
	CacheDir string

	// Log receives human-readable progress lines: "[i/N] Analyzing
	// <repo> / <analyzer>" on start, elapsed time on completion, and a
	// level summary between multi-repo levels. Nil discards them.
	Log func(line string)
}

func (o *Orchestrator) log(format string, args ...any) {
	if o.Log != nil {
		o.Log(fmt.Sprintf(format, args...))
	}
}

func (o *Orchestrator) analyzerNames() []string {
	if len(o.AnalyzerNames) > 0 {
		return o.AnalyzerNames
	}

	return o.Factory.Names()
}

// newRequest builds a worker.Request for analyzerName against repoPath,
// stamping CacheDir/SoftwareVersion from the Orchestrator's
// configuration so the Content-Hash Cache is reachable from both the
// Worker Pool path and the in-process fallback.
func (o *Orchestrator) newRequest(analyzerName, repoPath string) worker.Request {
	req := worker.Request{AnalyzerName: analyzerName, RepoPath: repoPath}

	if o.CacheDir != "" {
		req.CacheDir = o.CacheDir
		req.SoftwareVersion = version.String()
	}

	return req
}

// RunSingle runs every configured analyzer against one repo and writes
// its findings artifact atomically.
func (o *Orchestrator) RunSingle(ctx context.Context, repo depgraph.RepoInput) (model.FindingsArtifact, error) {
	names := o.analyzerNames()

	units := make([]worker.Unit, 0, len(names))
	for _, name := range names {
		units = append(units, worker.Unit{
			ID:      unitID(repo.Name, name),
			Request: o.newRequest(name, repo.Path),
		})
	}

	results, degraded := o.dispatch(ctx, units, len(units), 0)
	if degraded {
		o.log("worker pool unavailable, falling back to in-process sequential execution")
	}

	stampWorkingTreeDirty(results, repo.Path)

	artifact := mergeResults(repo.Name, results)

	if err := o.writeArtifact(artifact); err != nil {
		return artifact, err
	}

	return artifact, nil
}

// RunAll runs every configured analyzer against every repo, honoring
// RunAllOptions' leveling/filtering rules, and returns one artifact per
// repo keyed by repo name.
func (o *Orchestrator) RunAll(ctx context.Context, repos []depgraph.RepoInput, registry *detect.Registry, opts RunAllOptions) (map[string]model.FindingsArtifact, error) {
	if opts.DepsOnly {
		repos = filterDepsOnly(repos, registry)
	}

	var levels [][]string

	if opts.NoOrder {
		flat := make([]string, len(repos))
		for i, r := range repos {
			flat[i] = r.Name
		}

		levels = [][]string{flat}
	} else {
		graph := depgraph.Build(repos, registry)

		built, ok := graph.Levels()
		levels = built

		if !ok {
			o.log("dependency graph contains a cycle; analyzing the remaining repos as one unordered level")
		}
	}

	pathByName := make(map[string]string, len(repos))
	for _, r := range repos {
		pathByName[r.Name] = r.Path
	}

	artifacts := make(map[string]model.FindingsArtifact, len(repos))

	names := o.analyzerNames()
	totalUnits := len(repos) * len(names)
	doneUnits := 0

	for levelIdx, levelRepos := range levels {
		sort.Strings(levelRepos)

		units := make([]worker.Unit, 0, len(levelRepos)*len(names))

		for _, repoName := range levelRepos {
			repoPath, ok := pathByName[repoName]
			if !ok {
				continue
			}

			for _, name := range names {
				units = append(units, worker.Unit{
					ID:      unitID(repoName, name),
					Request: o.newRequest(name, repoPath),
				})
			}
		}

		results, degraded := o.dispatch(ctx, units, totalUnits, doneUnits)
		if degraded {
			o.log("worker pool unavailable, falling back to in-process sequential execution")
		}

		doneUnits += len(units)

		perRepo := groupByRepo(results)

		for _, repoName := range levelRepos {
			stampWorkingTreeDirty(perRepo[repoName], pathByName[repoName])

			artifact := mergeResults(repoName, perRepo[repoName])

			if err := o.writeArtifact(artifact); err != nil {
				return artifacts, err
			}

			artifacts[repoName] = artifact
		}

		o.log("level %d/%d complete: %d repo(s)", levelIdx+1, len(levels), len(levelRepos))
	}

	return artifacts, nil
}

// RunGap runs gap analysis for lib: lib itself, then every repo that
// transitively depends on it, appending dependency-gap findings (per
// the Dependency Graph's gap analysis) to each dependent's artifact.
func (o *Orchestrator) RunGap(ctx context.Context, repos []depgraph.RepoInput, registry *detect.Registry, lib string) (map[string]model.FindingsArtifact, error) {
	graph := depgraph.Build(repos, registry)

	dependents := transitiveDependents(graph, lib)

	ordered := append([]string{lib}, dependents...)

	pathByName := make(map[string]string, len(repos))
	for _, r := range repos {
		pathByName[r.Name] = r.Path
	}

	gapFindings := groupGapFindings(depgraph.AnalyzeGaps(repos, graph), ordered)

	artifacts := make(map[string]model.FindingsArtifact, len(ordered))

	names := o.analyzerNames()

	for _, repoName := range ordered {
		repoPath, ok := pathByName[repoName]
		if !ok {
			continue
		}

		units := make([]worker.Unit, 0, len(names))
		for _, name := range names {
			units = append(units, worker.Unit{
				ID:      unitID(repoName, name),
				Request: o.newRequest(name, repoPath),
			})
		}

		results, degraded := o.dispatch(ctx, units, len(ordered)*len(names), 0)
		if degraded {
			o.log("worker pool unavailable, falling back to in-process sequential execution")
		}

		stampWorkingTreeDirty(results, repoPath)

		artifact := mergeResults(repoName, results)
		artifact.Findings = append(artifact.Findings, gapFindings[repoName]...)
		sortFindings(artifact.Findings)

		if err := o.writeArtifact(artifact); err != nil {
			return artifacts, err
		}

		artifacts[repoName] = artifact
	}

	return artifacts, nil
}

// dispatch submits units to the Worker Pool, falling back to Factory's
// in-process sequential execution if the pool's own binary resolution
// fails outright (a spawn error, not a per-unit failure). offset and
// total feed the "[i/N]" progress line.
func (o *Orchestrator) dispatch(ctx context.Context, units []worker.Unit, total, offset int) (results []worker.UnitResult, degraded bool) {
	if o.Pool == nil {
		return o.runInProcess(units, total, offset), true
	}

	if _, _, err := worker.ResolveBinaryPath(o.Pool.BinaryPath); err != nil {
		return o.runInProcess(units, total, offset), true
	}

	i := offset

	pool := o.Pool.Clone()
	pool.Progress = func(ev worker.ProgressEvent) {
		o.reportProgress(ev, units, &i, total)
	}

	return pool.Run(ctx, units), false
}

func (o *Orchestrator) runInProcess(units []worker.Unit, total, offset int) []worker.UnitResult {
	results := make([]worker.UnitResult, len(units))

	for idx, u := range units {
		start := time.Now()

		o.log("[%d/%d] Analyzing %s", offset+idx+1, total, unitLabel(u))

		var c *cache.Cache
		if u.Request.CacheDir != "" {
			c = cache.New(u.Request.CacheDir, u.Request.SoftwareVersion)
		}

		result := o.Factory.Run(u.Request.AnalyzerName, u.Request.RepoPath, u.Request.IncludeExternal, c)

		results[idx] = worker.UnitResult{UnitID: u.ID, Result: result, DurationMS: time.Since(start).Milliseconds()}

		o.log("  done in %s", time.Since(start).Round(time.Millisecond))
	}

	return results
}

func (o *Orchestrator) reportProgress(ev worker.ProgressEvent, units []worker.Unit, i *int, total int) {
	switch ev.State {
	case worker.UnitStarted:
		*i++

		o.log("[%d/%d] Analyzing %s", *i, total, labelFor(units, ev.UnitID))
	case worker.UnitCompleted, worker.UnitFailed:
		o.log("  %s: %s", ev.UnitID, ev.State)
	}
}

func (o *Orchestrator) writeArtifact(artifact model.FindingsArtifact) error {
	path := filepath.Join(o.OutputDir, artifact.Repo+"-findings.json")

	encoded, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal findings for %s: %w", airerr.ErrPath, artifact.Repo, err)
	}

	if err := cache.AtomicWriteFile(path, encoded); err != nil {
		return fmt.Errorf("%w: write findings for %s: %w", airerr.ErrPath, artifact.Repo, err)
	}

	return nil
}

func unitID(repoName, analyzerName string) string {
	return repoName + "/" + analyzerName
}

func unitLabel(u worker.Unit) string {
	return fmt.Sprintf("%s / %s", repoFromUnitID(u.ID), u.Request.AnalyzerName)
}

func labelFor(units []worker.Unit, id string) string {
	for _, u := range units {
		if u.ID == id {
			return unitLabel(u)
		}
	}

	return id
}

func repoFromUnitID(id string) string {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '/' {
			return id[:i]
		}
	}

	return id
}

// stampWorkingTreeDirty reads repoPath's git status once and stamps
// every result's AnalyzerResult.Metadata so operators can judge a
// result's freshness against untracked state the content-hash cache
// can't see. A non-git repoPath or a read failure leaves the flag
// false rather than aborting the run.
func stampWorkingTreeDirty(results []worker.UnitResult, repoPath string) {
	dirty, err := gitstatus.IsDirty(repoPath)
	if err != nil {
		return
	}

	for i := range results {
		results[i].Result.Metadata.WorkingTreeDirty = dirty
	}
}

func mergeResults(repoName string, results []worker.UnitResult) model.FindingsArtifact {
	artifact := model.FindingsArtifact{
		Repo:        repoName,
		GeneratedAt: time.Now(),
		Analyzers:   make([]string, 0, len(results)),
	}

	for _, r := range results {
		artifact.Analyzers = append(artifact.Analyzers, r.Result.AnalyzerName)
		artifact.Findings = append(artifact.Findings, r.Result.Findings...)
	}

	sort.Strings(artifact.Analyzers)
	sortFindings(artifact.Findings)

	return artifact
}

func groupByRepo(results []worker.UnitResult) map[string][]worker.UnitResult {
	grouped := make(map[string][]worker.UnitResult)

	for _, r := range results {
		repo := repoFromUnitID(r.UnitID)
		grouped[repo] = append(grouped[repo], r)
	}

	return grouped
}

// groupGapFindings attributes each gap finding to its originating
// ("From") repo. AnalyzeGaps sets Finding.Location to the bare manifest
// filename (e.g. "package.json"), not a repo name, so the From repo is
// recovered from Description's deterministic "<from> depends on <to>
// via constraint..." prefix instead.
func groupGapFindings(findings []model.Finding, repoNames []string) map[string][]model.Finding {
	grouped := make(map[string][]model.Finding)

	for _, f := range findings {
		for _, repoName := range repoNames {
			if strings.HasPrefix(f.Description, repoName+" depends on ") {
				grouped[repoName] = append(grouped[repoName], f)

				break
			}
		}
	}

	return grouped
}

// sortFindings orders a merged artifact's findings by (severity desc,
// analyzer/category asc, location asc, line asc), the cross-analyzer
// ordering rule (distinct from the within-analyzer rule, which omits
// the analyzer key since every finding already shares one analyzer).
func sortFindings(findings []model.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]

		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}

		if a.Category != b.Category {
			return a.Category < b.Category
		}

		if a.Location != b.Location {
			return a.Location < b.Location
		}

		return a.LineNumber < b.LineNumber
	})
}

// transitiveDependents returns every repo name with a path to lib in
// the dependency graph (i.e. lib is a transitive dependency of it),
// sorted for deterministic output.
func transitiveDependents(graph *depgraph.Graph, lib string) []string {
	reverse := make(map[string][]string) // prerequisite -> dependents
	for _, e := range graph.Edges() {
		reverse[e.To] = append(reverse[e.To], e.From)
	}

	visited := map[string]bool{lib: true}
	queue := []string{lib}

	var dependents []string

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, dep := range reverse[cur] {
			if visited[dep] {
				continue
			}

			visited[dep] = true

			dependents = append(dependents, dep)
			queue = append(queue, dep)
		}
	}

	sort.Strings(dependents)

	return dependents
}

func filterDepsOnly(repos []depgraph.RepoInput, registry *detect.Registry) []depgraph.RepoInput {
	graph := depgraph.Build(repos, registry)

	connected := make(map[string]bool)
	for _, e := range graph.Edges() {
		connected[e.From] = true
		connected[e.To] = true
	}

	filtered := make([]depgraph.RepoInput, 0, len(repos))

	for _, r := range repos {
		if connected[r.Name] {
			filtered = append(filtered, r)
		}
	}

	return filtered
}
