// Package model holds the data types shared across air-toolkit's
// components: resources, findings, dependency results, cache entries,
// task records, and agent handles.
package model

import "time"

// ResourceType classifies what kind of thing a linked resource is.
type ResourceType string

// Recognized resource types.
const (
	ResourceLibrary       ResourceType = "library"
	ResourceDocumentation ResourceType = "documentation"
	ResourceService       ResourceType = "service"
)

// Relationship describes the operator's relationship to a resource.
type Relationship string

// Recognized relationships.
const (
	RelationshipReviewOnly  Relationship = "review-only"
	RelationshipContributor Relationship = "contributor"
)

// ContributionStatus tracks a contribution's lifecycle.
type ContributionStatus string

// Recognized contribution statuses.
const (
	ContributionProposed  ContributionStatus = "proposed"
	ContributionDraft     ContributionStatus = "draft"
	ContributionSubmitted ContributionStatus = "submitted"
	ContributionMerged    ContributionStatus = "merged"
)

// Contribution is a proposed source-to-target path change against a
// contributor resource.
type Contribution struct {
	Source string             `json:"source"`
	Target string             `json:"target"`
	Status ContributionStatus `json:"status"`
}

// Resource is one external repository linked into a workspace.
type Resource struct {
	Name            string         `json:"name"`
	Path            string         `json:"path"`
	Type            ResourceType   `json:"type"`
	Relationship    Relationship   `json:"relationship"`
	Writable        bool           `json:"writable"`
	TechnologyStack string         `json:"technology_stack,omitempty"`
	Clone           bool           `json:"clone"`
	Outputs         []string       `json:"outputs"`
	Contributions   []Contribution `json:"contributions"`
	LinkedAt        time.Time      `json:"linked_at,omitempty"`
}

// WorkspaceMode describes how a workspace is being used.
type WorkspaceMode string

// Recognized workspace modes.
const (
	ModeReview  WorkspaceMode = "review"
	ModeDevelop WorkspaceMode = "develop"
	ModeMixed   WorkspaceMode = "mixed"
)

// ResourceSet splits resources by relationship, matching the persisted
// config's two disjoint lists.
type ResourceSet struct {
	Review  []Resource `json:"review"`
	Develop []Resource `json:"develop"`
}

// WorkspaceConfig is the versioned record persisted at
// .air/air-config.json.
type WorkspaceConfig struct {
	Version   string        `json:"version"`
	Name      string        `json:"name"`
	Mode      WorkspaceMode `json:"mode"`
	Created   time.Time     `json:"created"`
	Resources ResourceSet   `json:"resources"`
	Goals     []string      `json:"goals"`
}

// Severity is a finding's severity level, ordered from least to most
// severe for comparison purposes via SeverityRank.
type Severity string

// Recognized severities.
const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns an ordinal for the severity, higher meaning more severe.
// Unknown severities rank below SeverityInfo.
func (s Severity) Rank() int {
	rank, ok := severityRank[s]
	if !ok {
		return -1
	}

	return rank
}

// Finding is one observation produced by one analyzer on one file.
type Finding struct {
	Category    string         `json:"category"`
	Severity    Severity       `json:"severity"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Suggestion  string         `json:"suggestion,omitempty"`
	Location    string         `json:"location"`
	LineNumber  int            `json:"line_number,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`

	// SourceAgent is attached by the Findings Aggregator when collecting
	// across repos/agents; empty until then.
	SourceAgent string `json:"source_agent,omitempty"`
}

// ResultMetadata carries the analyzer-run bookkeeping attached to an
// AnalyzerResult.
type ResultMetadata struct {
	DurationMS       int64  `json:"duration_ms"`
	Error            bool   `json:"error,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
	AnalyzerVersion  string `json:"analyzer_version,omitempty"`
	WorkingTreeDirty bool   `json:"working_tree_dirty,omitempty"`
}

// AnalyzerResult is one analyzer's output for one repo.
type AnalyzerResult struct {
	AnalyzerName string         `json:"analyzer_name"`
	Findings     []Finding      `json:"findings"`
	Summary      map[string]int `json:"summary"`
	Metadata     ResultMetadata `json:"metadata"`
}

// FindingsArtifact is the per-repo output the Analysis Orchestrator
// writes atomically to analysis/reviews/<repo>-findings.json: every
// analyzer's findings for one repo, merged and sorted.
type FindingsArtifact struct {
	Repo        string    `json:"repo"`
	GeneratedAt time.Time `json:"generated_at"`
	Analyzers   []string  `json:"analyzers"`
	Findings    []Finding `json:"findings"`
}

// DependencyType classifies how a DependencyResult's names were derived.
type DependencyType string

// Recognized dependency types.
const (
	DependencyPackage DependencyType = "package"
	DependencyImport  DependencyType = "import"
	DependencyAPI     DependencyType = "api"
)

// DependencyResult is one detector's output for one repo.
type DependencyResult struct {
	DependencyType DependencyType    `json:"dependency_type"`
	Dependencies   []string          `json:"dependencies"`
	SourceFile     string            `json:"source_file"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ClassificationResult is a repo's inferred type, language, framework,
// and technology stack string.
type ClassificationResult struct {
	Type             ResourceType `json:"type"`
	PrimaryLanguage  string       `json:"primary_language"`
	PrimaryFramework string       `json:"primary_framework,omitempty"`
	TechnologyStack  string       `json:"technology_stack,omitempty"`
	Confidence       float64      `json:"confidence"`
}

// CacheEntry is a persisted per-(file-content-hash, analyzer-name) record.
type CacheEntry struct {
	AnalyzerName    string    `json:"analyzer_name"`
	SoftwareVersion string    `json:"software_version"`
	Findings        []Finding `json:"findings"`
	StoredAt        time.Time `json:"stored_at"`
}

// TaskOutcome classifies a task record's leading outcome glyph.
type TaskOutcome string

// Recognized task outcomes.
const (
	OutcomeInProgress TaskOutcome = "in_progress"
	OutcomeSuccess    TaskOutcome = "success"
	OutcomePartial    TaskOutcome = "partial"
	OutcomeBlocked    TaskOutcome = "blocked"
)

// TaskRecord is the parsed form of one .air/tasks/*.md session file.
type TaskRecord struct {
	Path    string      `json:"path"`
	Date    string      `json:"date"`
	Prompt  string      `json:"prompt"`
	Actions string      `json:"actions"`
	Files   string      `json:"files"`
	Outcome TaskOutcome `json:"outcome"`
	Notes   string      `json:"notes"`
	Slug    string      `json:"slug"`
}

// AgentStatus is an AgentHandle's lifecycle state.
type AgentStatus string

// Recognized agent statuses.
const (
	AgentRunning  AgentStatus = "running"
	AgentComplete AgentStatus = "complete"
	AgentFailed   AgentStatus = "failed"
)

// AgentHandle is metadata for one background analysis process.
type AgentHandle struct {
	ID      string      `json:"id"`
	Status  AgentStatus `json:"status"`
	Started time.Time   `json:"started"`
	PID     int         `json:"pid"`
	Command string      `json:"command"`
	Args    []string    `json:"args"`
}
