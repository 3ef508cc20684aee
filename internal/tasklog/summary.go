package tasklog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// SummaryFormat selects Summary's render format.
type SummaryFormat string

// Recognized summary formats.
const (
	SummaryMarkdown SummaryFormat = "markdown"
	SummaryJSON     SummaryFormat = "json"
	SummaryText     SummaryFormat = "text"
)

// SummaryOptions configures Summary.
type SummaryOptions struct {
	Format          SummaryFormat
	Since           *time.Time
	IncludeArchived bool
	Output          string // if non-empty, the rendered report is also written here.
}

// SummaryStats aggregates a set of task records.
type SummaryStats struct {
	Total        int                       `json:"total"`
	ByOutcome    map[model.TaskOutcome]int `json:"by_outcome"`
	FilesChanged int                       `json:"files_changed"`
	EarliestDate string                    `json:"earliest_date,omitempty"`
	LatestDate   string                    `json:"latest_date,omitempty"`
}

// Summary reads tasksDir's task records (and archive, if requested),
// filters by opts.Since, computes SummaryStats, and renders the
// result in opts.Format, optionally also writing it to opts.Output.
func Summary(tasksDir string, opts SummaryOptions) (string, error) {
	records, err := List(tasksDir, ListOptions{IncludeArchived: opts.IncludeArchived, Sort: SortByDate})
	if err != nil {
		return "", err
	}

	if opts.Since != nil {
		records = filterSince(records, *opts.Since)
	}

	stats := computeStats(records)

	var rendered string

	switch opts.Format {
	case SummaryJSON:
		rendered, err = renderSummaryJSON(stats, records)
	case SummaryText:
		rendered = renderSummaryText(stats, records)
	case SummaryMarkdown, "":
		rendered = renderSummaryMarkdown(stats, records)
	default:
		return "", fmt.Errorf("%w: unknown summary format %q", airerr.ErrValidation, opts.Format)
	}

	if err != nil {
		return "", err
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(rendered), 0o644); err != nil { //nolint:gosec // summary report is not sensitive.
			return rendered, fmt.Errorf("%w: write summary: %w", airerr.ErrPath, err)
		}
	}

	return rendered, nil
}

func filterSince(records []model.TaskRecord, since time.Time) []model.TaskRecord {
	filtered := make([]model.TaskRecord, 0, len(records))

	for _, r := range records {
		parsed, ok := ParseFilename(filepathBase(r.Path))
		if ok && parsed.Date.Before(since) {
			continue
		}

		filtered = append(filtered, r)
	}

	return filtered
}

func computeStats(records []model.TaskRecord) SummaryStats {
	stats := SummaryStats{
		Total:     len(records),
		ByOutcome: map[model.TaskOutcome]int{},
	}

	for _, r := range records {
		stats.ByOutcome[r.Outcome]++

		if strings.TrimSpace(r.Files) != "" {
			stats.FilesChanged++
		}

		date := filenameDate(r)
		if date == "" {
			continue
		}

		if stats.EarliestDate == "" || date < stats.EarliestDate {
			stats.EarliestDate = date
		}

		if stats.LatestDate == "" || date > stats.LatestDate {
			stats.LatestDate = date
		}
	}

	return stats
}

func renderSummaryJSON(stats SummaryStats, records []model.TaskRecord) (string, error) {
	payload := struct {
		Stats   SummaryStats       `json:"stats"`
		Records []model.TaskRecord `json:"records"`
	}{Stats: stats, Records: records}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: encode summary: %w", airerr.ErrConfig, err)
	}

	return string(raw), nil
}

func renderSummaryMarkdown(stats SummaryStats, records []model.TaskRecord) string {
	var b strings.Builder

	b.WriteString("# Task Summary\n\n")
	fmt.Fprintf(&b, "- Total: %d\n", stats.Total)

	for _, outcome := range []model.TaskOutcome{model.OutcomeSuccess, model.OutcomePartial, model.OutcomeInProgress, model.OutcomeBlocked} {
		fmt.Fprintf(&b, "- %s: %d\n", outcome, stats.ByOutcome[outcome])
	}

	fmt.Fprintf(&b, "- Files changed: %d\n", stats.FilesChanged)

	if stats.EarliestDate != "" {
		fmt.Fprintf(&b, "- Date range: %s to %s\n", stats.EarliestDate, stats.LatestDate)
	}

	b.WriteString("\n## Tasks\n\n")

	for _, r := range records {
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", titleFromSlug(r.Slug), r.Outcome, previewPrompt(r.Prompt))
	}

	return b.String()
}

func renderSummaryText(stats SummaryStats, records []model.TaskRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total: %d\n", stats.Total)

	for _, outcome := range []model.TaskOutcome{model.OutcomeSuccess, model.OutcomePartial, model.OutcomeInProgress, model.OutcomeBlocked} {
		fmt.Fprintf(&b, "%s: %d\n", outcome, stats.ByOutcome[outcome])
	}

	fmt.Fprintf(&b, "Files changed: %d\n", stats.FilesChanged)

	if stats.EarliestDate != "" {
		fmt.Fprintf(&b, "Date range: %s to %s\n", stats.EarliestDate, stats.LatestDate)
	}

	for _, r := range records {
		fmt.Fprintf(&b, "%s\t%s\t%s\n", titleFromSlug(r.Slug), r.Outcome, previewPrompt(r.Prompt))
	}

	return b.String()
}
