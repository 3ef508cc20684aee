package findings

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

var severityColor = map[model.Severity]*color.Color{
	model.SeverityCritical: color.New(color.FgRed, color.Bold),
	model.SeverityHigh:     color.New(color.FgRed),
	model.SeverityMedium:   color.New(color.FgYellow),
	model.SeverityLow:      color.New(color.FgBlue),
	model.SeverityInfo:     color.New(color.FgCyan),
}

func renderText(findings []model.Finding, w io.Writer) error {
	groups := groupBySourceThenSeverity(findings)

	fmt.Fprintf(w, "%s findings across %s\n", humanize.Comma(int64(len(findings))), humanize.Comma(int64(len(groups))))

	for _, g := range groups {
		fmt.Fprintf(w, "\n== %s ==\n", g.Source)

		tbl := table.NewWriter()
		tbl.SetOutputMirror(w)
		tbl.SetStyle(table.StyleLight)
		tbl.Style().Options.SeparateRows = false
		tbl.AppendHeader(table.Row{"Severity", "Category", "Title", "Location"})

		for _, f := range g.Findings {
			c := severityColor[f.Severity]
			if c == nil {
				c = color.New(color.Reset)
			}

			tbl.AppendRow(table.Row{c.Sprint(f.Severity), f.Category, f.Title, locationLabel(f)})
		}

		tbl.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d findings", len(g.Findings))})
		tbl.Render()

		fmt.Fprintln(w, severityBreakdown(g.Findings))
	}

	return nil
}

func locationLabel(f model.Finding) string {
	if f.LineNumber > 0 {
		return fmt.Sprintf("%s:%d", f.Location, f.LineNumber)
	}

	return f.Location
}

func severityBreakdown(findings []model.Finding) string {
	counts := severityCounts(findings)

	breakdown := ""

	for _, sev := range []model.Severity{
		model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow, model.SeverityInfo,
	} {
		if counts[sev] == 0 {
			continue
		}

		if breakdown != "" {
			breakdown += ", "
		}

		c := severityColor[sev]
		breakdown += c.Sprintf("%s: %d", sev, counts[sev])
	}

	return breakdown
}
