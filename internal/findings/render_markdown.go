package findings

import (
	"fmt"
	"io"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

func renderMarkdown(findings []model.Finding, w io.Writer) error {
	groups := groupBySourceThenSeverity(findings)

	if _, err := fmt.Fprintf(w, "# Findings (%d)\n", len(findings)); err != nil {
		return err
	}

	for _, g := range groups {
		if _, err := fmt.Fprintf(w, "\n## %s\n", g.Source); err != nil {
			return err
		}

		for _, f := range g.Findings {
			if _, err := fmt.Fprintf(w, "\n- **[%s] %s** — %s\n", f.Severity, f.Title, f.Category); err != nil {
				return err
			}

			if f.Location != "" {
				if _, err := fmt.Fprintf(w, "  - Location: `%s`", f.Location); err != nil {
					return err
				}

				if f.LineNumber > 0 {
					if _, err := fmt.Fprintf(w, ":%d", f.LineNumber); err != nil {
						return err
					}
				}

				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}

			if f.Description != "" {
				if _, err := fmt.Fprintf(w, "  - %s\n", f.Description); err != nil {
					return err
				}
			}

			if f.Suggestion != "" {
				if _, err := fmt.Fprintf(w, "  - Suggestion: %s\n", f.Suggestion); err != nil {
					return err
				}
			}
		}
	}

	return nil
}
