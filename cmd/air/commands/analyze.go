package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/LiveData-Inc/air-toolkit/internal/analyze"
	"github.com/LiveData-Inc/air-toolkit/internal/depgraph"
	"github.com/LiveData-Inc/air-toolkit/internal/detect"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
	"github.com/LiveData-Inc/air-toolkit/internal/orchestrator"
	"github.com/LiveData-Inc/air-toolkit/internal/worker"
	"github.com/LiveData-Inc/air-toolkit/internal/workspace"
)

func newAnalyzeCommand() *cobra.Command {
	var (
		all      bool
		gap      string
		focus    []string
		parallel bool
		workers  int
		noOrder  bool
		depsOnly bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [REPO]",
		Short: "Run analyzers across one or more linked repos",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := workspace.Load(".")
			if err != nil {
				return hintedError(err)
			}

			s, err := loadSettings()
			if err != nil {
				return hintedError(err)
			}

			factory := analyze.NewDefaultRegistry()
			registry := detect.NewDefaultRegistry()

			var pool *worker.Pool
			if parallel {
				workerCount := workers
				if workerCount <= 0 {
					workerCount = s.Worker.Workers
				}

				unitTimeout, parseErr := time.ParseDuration(s.Worker.UnitTimeout)
				if parseErr != nil {
					unitTimeout = 0
				}

				pool = &worker.Pool{Workers: workerCount, UnitTimeout: unitTimeout, BinaryPath: s.Worker.BinaryPath}
			}

			orch := &orchestrator.Orchestrator{
				Pool:          pool,
				Factory:       factory,
				AnalyzerNames: focus,
				OutputDir:     filepath.Join(store.Root, "analysis", "reviews"),
				Log: func(line string) {
					if !quiet {
						cmd.Println(line)
					}
				},
			}

			if !noCache && s.Cache.Enabled {
				orch.CacheDir = filepath.Join(store.Root, s.Cache.Directory)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			switch {
			case gap != "":
				return runGap(ctx, cmd, orch, store, registry, gap)
			case all:
				return runAll(ctx, cmd, orch, store, registry, orchestrator.RunAllOptions{NoOrder: noOrder, DepsOnly: depsOnly})
			case len(args) == 1:
				return runSingle(ctx, cmd, orch, store, args[0])
			default:
				return fmt.Errorf("analyze requires a repo name, --all, or --gap")
			}
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "analyze every linked repo in dependency order")
	cmd.Flags().StringVar(&gap, "gap", "", "run gap analysis for the named repo against its dependents")
	cmd.Flags().StringSliceVar(&focus, "focus", nil, "restrict to these analyzer names (default: all registered)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "dispatch analyzers through the out-of-process worker pool")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (default: settings/NumCPU)")
	cmd.Flags().BoolVar(&noOrder, "no-order", false, "skip dependency leveling; analyze every repo as one batch")
	cmd.Flags().BoolVar(&depsOnly, "deps-only", false, "with --all, skip repos with no dependency edges")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the content-hash findings cache for this run")

	return cmd
}

func runSingle(ctx context.Context, cmd *cobra.Command, orch *orchestrator.Orchestrator, store *workspace.Store, name string) error {
	repo, err := repoInput(store, name)
	if err != nil {
		return hintedError(err)
	}

	artifact, err := orch.RunSingle(ctx, repo)
	if err != nil {
		return hintedError(err)
	}

	reportSummary(cmd, map[string]model.FindingsArtifact{repo.Name: artifact})

	return nil
}

func runAll(ctx context.Context, cmd *cobra.Command, orch *orchestrator.Orchestrator, store *workspace.Store, registry *detect.Registry, opts orchestrator.RunAllOptions) error {
	repos := allRepoInputs(store)

	artifacts, err := orch.RunAll(ctx, repos, registry, opts)
	if err != nil {
		return hintedError(err)
	}

	reportSummary(cmd, artifacts)

	return nil
}

func runGap(ctx context.Context, cmd *cobra.Command, orch *orchestrator.Orchestrator, store *workspace.Store, registry *detect.Registry, lib string) error {
	repos := allRepoInputs(store)

	artifacts, err := orch.RunGap(ctx, repos, registry, lib)
	if err != nil {
		return hintedError(err)
	}

	reportSummary(cmd, artifacts)

	return nil
}

func repoInput(store *workspace.Store, name string) (depgraph.RepoInput, error) {
	for _, r := range allRepoInputs(store) {
		if r.Name == name {
			return r, nil
		}
	}

	return depgraph.RepoInput{}, fmt.Errorf("no linked resource named %q", name)
}

func allRepoInputs(store *workspace.Store) []depgraph.RepoInput {
	resources := append(append([]model.Resource{}, store.Config.Resources.Review...), store.Config.Resources.Develop...)

	repos := make([]depgraph.RepoInput, 0, len(resources))
	for _, r := range resources {
		repos = append(repos, depgraph.RepoInput{Name: r.Name, Path: filepath.Join(store.Root, "repos", r.Name)})
	}

	return repos
}

func reportSummary(cmd *cobra.Command, artifacts map[string]model.FindingsArtifact) {
	total := 0
	for _, artifact := range artifacts {
		total += len(artifact.Findings)
	}

	cmd.Printf("%d repo(s) analyzed, %d finding(s)\n", len(artifacts), total)
}
