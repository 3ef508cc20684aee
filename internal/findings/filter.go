package findings

import "github.com/LiveData-Inc/air-toolkit/internal/model"

// FilterOptions narrows a finding set. A zero value matches everything.
type FilterOptions struct {
	SeverityMin model.Severity // empty means no floor.
	Category    string         // empty means no filter.
}

// Filter returns the findings in findings matching opts, preserving order.
func Filter(findings []model.Finding, opts FilterOptions) []model.Finding {
	filtered := make([]model.Finding, 0, len(findings))

	for _, f := range findings {
		if opts.SeverityMin != "" && f.Severity.Rank() < opts.SeverityMin.Rank() {
			continue
		}

		if opts.Category != "" && f.Category != opts.Category {
			continue
		}

		filtered = append(filtered, f)
	}

	return filtered
}
