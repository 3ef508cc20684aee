package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/LiveData-Inc/air-toolkit/internal/findings"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

func newFindingsCommand() *cobra.Command {
	var (
		allAgents   bool
		agentIDs    []string
		severityMin string
		category    string
		format      string
		outputPath  string
	)

	cmd := &cobra.Command{
		Use:   "findings",
		Short: "Collect, filter, and render findings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			collected, err := findings.Collect(".", findings.CollectScope{All: allAgents, AgentIDs: agentIDs})
			if err != nil {
				return hintedError(err)
			}

			filtered := findings.Filter(collected, findings.FilterOptions{
				SeverityMin: model.Severity(severityMin),
				Category:    category,
			})

			w := cmd.OutOrStdout()

			if outputPath != "" {
				f, createErr := os.Create(outputPath) //nolint:gosec // operator-supplied output path.
				if createErr != nil {
					return hintedError(createErr)
				}
				defer f.Close()

				w = f
			}

			if err := findings.Render(filtered, findings.RenderFormat(format), w); err != nil {
				return hintedError(err)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&allAgents, "all", false, "include every agent's findings, not just repo reviews")
	cmd.Flags().StringSliceVar(&agentIDs, "agent", nil, "include only these agent IDs' findings")
	cmd.Flags().StringVar(&severityMin, "severity-min", "", "drop findings below this severity")
	cmd.Flags().StringVar(&category, "category", "", "restrict to this category")
	cmd.Flags().StringVar(&format, "format", string(findings.FormatText), "output format: text, markdown, json, or html")
	cmd.Flags().StringVar(&outputPath, "output", "", "write to this file instead of stdout")

	return cmd
}
