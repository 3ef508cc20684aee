package tasklog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

const metadataFileName = "metadata.json"

// StartAgent mints an AgentHandle for a newly spawned background
// analysis process, creates its directory under agentsDir, and
// persists its metadata. Stdout/stderr logs are written by the caller
// alongside the returned handle's directory.
func StartAgent(agentsDir, command string, args []string, pid int) (model.AgentHandle, error) {
	handle := model.AgentHandle{
		ID:      uuid.New().String(),
		Status:  model.AgentRunning,
		Started: time.Now(),
		PID:     pid,
		Command: command,
		Args:    args,
	}

	if err := os.MkdirAll(agentDir(agentsDir, handle.ID), 0o755); err != nil {
		return model.AgentHandle{}, fmt.Errorf("%w: create agent dir: %w", airerr.ErrPath, err)
	}

	if err := saveAgentHandle(agentsDir, handle); err != nil {
		return model.AgentHandle{}, err
	}

	return handle, nil
}

// FinishAgent loads an agent's handle, updates its status, and
// persists it. Called once the background process exits.
func FinishAgent(agentsDir, id string, status model.AgentStatus) (model.AgentHandle, error) {
	handle, err := LoadAgent(agentsDir, id)
	if err != nil {
		return model.AgentHandle{}, err
	}

	handle.Status = status

	if err := saveAgentHandle(agentsDir, handle); err != nil {
		return model.AgentHandle{}, err
	}

	return handle, nil
}

// LoadAgent reads the persisted handle for id.
func LoadAgent(agentsDir, id string) (model.AgentHandle, error) {
	raw, err := os.ReadFile(filepath.Join(agentDir(agentsDir, id), metadataFileName))
	if err != nil {
		return model.AgentHandle{}, fmt.Errorf("%w: read agent metadata: %w", airerr.ErrPath, err)
	}

	var handle model.AgentHandle
	if err := json.Unmarshal(raw, &handle); err != nil {
		return model.AgentHandle{}, fmt.Errorf("%w: decode agent metadata: %w", airerr.ErrConfig, err)
	}

	return handle, nil
}

// ListAgents returns every agent handle recorded under agentsDir.
func ListAgents(agentsDir string) ([]model.AgentHandle, error) {
	entries, err := os.ReadDir(agentsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: list %s: %w", airerr.ErrPath, agentsDir, err)
	}

	handles := make([]model.AgentHandle, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		handle, loadErr := LoadAgent(agentsDir, entry.Name())
		if loadErr != nil {
			continue
		}

		handles = append(handles, handle)
	}

	return handles, nil
}

// AgentLogPaths returns the stdout/stderr/findings paths alongside an
// agent's metadata, per spec.md §6's agent-metadata layout.
func AgentLogPaths(agentsDir, id string) (stdout, stderr, findings string) {
	dir := agentDir(agentsDir, id)

	return filepath.Join(dir, "stdout.log"), filepath.Join(dir, "stderr.log"), filepath.Join(dir, "findings.json")
}

func agentDir(agentsDir, id string) string {
	return filepath.Join(agentsDir, id)
}

func saveAgentHandle(agentsDir string, handle model.AgentHandle) error {
	raw, err := json.MarshalIndent(handle, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode agent metadata: %w", airerr.ErrConfig, err)
	}

	path := filepath.Join(agentDir(agentsDir, handle.ID), metadataFileName)

	if err := os.WriteFile(path, raw, 0o644); err != nil { //nolint:gosec // agent metadata is not sensitive.
		return fmt.Errorf("%w: write agent metadata: %w", airerr.ErrPath, err)
	}

	return nil
}
