package findings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// CollectScope selects which agent findings Collect includes. Review
// findings (analysis/reviews/*.json) are always included.
type CollectScope struct {
	All      bool
	AgentIDs []string
}

// Collect reads every per-repo findings artifact under
// workspaceRoot/analysis/reviews/ and, for agents selected by scope,
// every .air/agents/<id>/findings.json, attaching SourceAgent to each
// finding that doesn't already carry one.
func Collect(workspaceRoot string, scope CollectScope) ([]model.Finding, error) {
	reviewFindings, err := collectReviews(filepath.Join(workspaceRoot, "analysis", "reviews"))
	if err != nil {
		return nil, err
	}

	agentFindings, err := collectAgents(filepath.Join(workspaceRoot, ".air", "agents"), scope)
	if err != nil {
		return nil, err
	}

	return append(reviewFindings, agentFindings...), nil
}

func collectReviews(dir string) ([]model.Finding, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: list %s: %w", airerr.ErrPath, dir, err)
	}

	var collected []model.Finding

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		var artifact model.FindingsArtifact
		if err := readJSONFile(filepath.Join(dir, entry.Name()), &artifact); err != nil {
			continue
		}

		for _, f := range artifact.Findings {
			if f.SourceAgent == "" {
				f.SourceAgent = "repo:" + artifact.Repo
			}

			collected = append(collected, f)
		}
	}

	return collected, nil
}

func collectAgents(agentsDir string, scope CollectScope) ([]model.Finding, error) {
	entries, err := os.ReadDir(agentsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: list %s: %w", airerr.ErrPath, agentsDir, err)
	}

	wanted := make(map[string]bool, len(scope.AgentIDs))
	for _, id := range scope.AgentIDs {
		wanted[id] = true
	}

	var collected []model.Finding

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if !scope.All && !wanted[entry.Name()] {
			continue
		}

		var artifact model.FindingsArtifact

		path := filepath.Join(agentsDir, entry.Name(), "findings.json")
		if err := readJSONFile(path, &artifact); err != nil {
			continue
		}

		for _, f := range artifact.Findings {
			f.SourceAgent = entry.Name()
			collected = append(collected, f)
		}
	}

	return collected, nil
}

func readJSONFile(path string, v any) error {
	raw, err := os.ReadFile(path) //nolint:gosec // path is built from a directory listing, not untrusted input.
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, v)
}
