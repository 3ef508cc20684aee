package findings

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

type jsonGroup struct {
	Source   string          `json:"source"`
	Findings []model.Finding `json:"findings"`
}

func renderJSON(findings []model.Finding, w io.Writer) error {
	groups := groupBySourceThenSeverity(findings)

	payload := make([]jsonGroup, 0, len(groups))
	for _, g := range groups {
		payload = append(payload, jsonGroup{Source: g.Source, Findings: g.Findings})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("%w: encode findings: %w", airerr.ErrConfig, err)
	}

	return nil
}
