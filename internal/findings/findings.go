// Package findings collects per-repo and per-agent findings artifacts,
// filters them, and renders combined views grouped by source and
// severity.
package findings

import (
	"fmt"
	"io"
	"sort"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// RenderFormat selects Render's output shape.
type RenderFormat string

// Recognized render formats.
const (
	FormatText     RenderFormat = "text"
	FormatMarkdown RenderFormat = "markdown"
	FormatJSON     RenderFormat = "json"
	FormatHTML     RenderFormat = "html"
)

// Render writes findings to w in format, grouped by source then by
// severity (most severe first within each source).
func Render(findings []model.Finding, format RenderFormat, w io.Writer) error {
	switch format {
	case FormatJSON:
		return renderJSON(findings, w)
	case FormatMarkdown:
		return renderMarkdown(findings, w)
	case FormatHTML:
		return renderHTML(findings, w)
	case FormatText, "":
		return renderText(findings, w)
	default:
		return fmt.Errorf("%w: unknown findings format %q", airerr.ErrValidation, format)
	}
}

// group is one source's findings, already sorted most-severe-first.
type group struct {
	Source   string
	Findings []model.Finding
}

func groupBySourceThenSeverity(findings []model.Finding) []group {
	bySource := map[string][]model.Finding{}

	var sources []string

	for _, f := range findings {
		if _, ok := bySource[f.SourceAgent]; !ok {
			sources = append(sources, f.SourceAgent)
		}

		bySource[f.SourceAgent] = append(bySource[f.SourceAgent], f)
	}

	sort.Strings(sources)

	groups := make([]group, 0, len(sources))

	for _, s := range sources {
		fs := bySource[s]
		sort.SliceStable(fs, func(i, j int) bool { return fs[i].Severity.Rank() > fs[j].Severity.Rank() })
		groups = append(groups, group{Source: s, Findings: fs})
	}

	return groups
}

func severityCounts(findings []model.Finding) map[model.Severity]int {
	counts := make(map[model.Severity]int, len(findings))
	for _, f := range findings {
		counts[f.Severity]++
	}

	return counts
}
