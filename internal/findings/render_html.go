package findings

import (
	"fmt"
	"html"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

var severityPieColor = map[model.Severity]string{
	model.SeverityCritical: "#b91c1c",
	model.SeverityHigh:     "#dc2626",
	model.SeverityMedium:   "#d97706",
	model.SeverityLow:      "#2563eb",
	model.SeverityInfo:     "#0891b2",
}

// renderHTML writes a self-contained HTML document: a findings-by-
// severity pie chart followed by a per-source findings table.
func renderHTML(findings []model.Finding, w io.Writer) error {
	groups := groupBySourceThenSeverity(findings)

	pie := severityPie(findings)
	if err := pie.Render(w); err != nil {
		return err
	}

	fmt.Fprintln(w, "<div style=\"font-family: sans-serif; max-width: 960px; margin: 0 auto;\">")

	for _, g := range groups {
		fmt.Fprintf(w, "<h2>%s</h2>\n<table border=\"1\" cellpadding=\"6\" cellspacing=\"0\">\n", html.EscapeString(g.Source))
		fmt.Fprintln(w, "<tr><th>Severity</th><th>Category</th><th>Title</th><th>Location</th></tr>")

		for _, f := range g.Findings {
			fmt.Fprintf(w, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
				html.EscapeString(string(f.Severity)), html.EscapeString(f.Category),
				html.EscapeString(f.Title), html.EscapeString(locationLabel(f)))
		}

		fmt.Fprintln(w, "</table>")
	}

	fmt.Fprintln(w, "</div>")

	return nil
}

func severityPie(findings []model.Finding) *charts.Pie {
	counts := severityCounts(findings)

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "600px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Findings by severity"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	data := make([]opts.PieData, 0, len(counts))

	for _, sev := range []model.Severity{
		model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow, model.SeverityInfo,
	} {
		if counts[sev] == 0 {
			continue
		}

		data = append(data, opts.PieData{
			Name:      string(sev),
			Value:     counts[sev],
			ItemStyle: &opts.ItemStyle{Color: severityPieColor[sev]},
		})
	}

	pie.AddSeries("severity", data).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c} ({d}%)"}),
	)

	return pie
}
