package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
	"github.com/LiveData-Inc/air-toolkit/internal/workspace"
)

func newInitCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "init NAME",
		Short: "Create a new assessment workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspaceMode := model.WorkspaceMode(mode)

			switch workspaceMode {
			case model.ModeReview, model.ModeDevelop, model.ModeMixed:
			default:
				return fmt.Errorf("unrecognized --mode %q (want review, develop, or mixed)", mode)
			}

			if _, err := workspace.Init(".", args[0], workspaceMode); err != nil {
				return hintedError(err)
			}

			cmd.Printf("Initialized %s workspace %q\n", workspaceMode, args[0])

			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(model.ModeReview), "workspace mode: review, develop, or mixed")

	return cmd
}
