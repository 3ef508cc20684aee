package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LiveData-Inc/air-toolkit/internal/workspace"
)

func newValidateCommand() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check and repair the workspace's symlink structure",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := workspace.Load(".")
			if err != nil {
				return hintedError(err)
			}

			report, err := store.Validate(fix)
			if err != nil {
				return hintedError(err)
			}

			for _, name := range report.Broken {
				cmd.Printf("broken or missing: repos/%s\n", name)
			}

			for _, name := range report.Missing {
				cmd.Printf("broken or missing: repos/%s\n", name)
			}

			for _, name := range report.Repaired {
				cmd.Printf("repaired: repos/%s\n", name)
			}

			for _, residual := range report.Residual {
				cmd.Printf("could not repair: %s\n", residual)
			}

			if report.Diff != "" {
				cmd.Println(report.Diff)
			}

			if !fix && (len(report.Broken) > 0 || len(report.Missing) > 0) {
				return fmt.Errorf("%w: %d broken, %d missing", ErrValidationFailed, len(report.Broken), len(report.Missing))
			}

			if fix && len(report.Residual) > 0 {
				return fmt.Errorf("%w: %d link(s) could not be repaired", ErrValidationFailed, len(report.Residual))
			}

			cmd.Println("workspace is valid")

			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "recreate missing or broken symlinks")

	return cmd
}
