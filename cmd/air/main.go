// Command air is the assessment-workspace CLI: it wires the Workspace
// Store, Analysis Orchestrator, Task Log, and Findings Aggregator onto
// a cobra command tree.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LiveData-Inc/air-toolkit/cmd/air/commands"
	"github.com/LiveData-Inc/air-toolkit/internal/analyze"
	"github.com/LiveData-Inc/air-toolkit/internal/worker"
)

func main() {
	// Before any cobra parsing: a re-exec'd worker child never looks
	// like a normal air invocation, so it must be caught first.
	if len(os.Args) > 1 && os.Args[1] == worker.ChildSubcommand {
		if err := worker.RunChild(os.Stdin, os.Stdout, analyze.NewDefaultRegistry()); err != nil {
			fmt.Fprintf(os.Stderr, "air: %v\n", err)
			os.Exit(1)
		}

		return
	}

	rootCmd := commands.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}
