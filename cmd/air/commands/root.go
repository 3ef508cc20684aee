// Package commands implements CLI command handlers for air.
package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
	"github.com/LiveData-Inc/air-toolkit/internal/settings"
	"github.com/LiveData-Inc/air-toolkit/pkg/version"
)

var (
	verbose    bool
	quiet      bool
	configPath string
)

// ErrValidationFailed is returned by validate when unrepaired broken
// or missing links remain, distinguishing it from a plain tool error.
var ErrValidationFailed = errors.New("workspace validation failed")

// ExitCode maps a RunE error to the process exit status: 3 for an
// outstanding validation failure, 1 for every other error.
func ExitCode(err error) int {
	if errors.Is(err, ErrValidationFailed) {
		return 3
	}

	return 1
}

// NewRootCommand assembles the air command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "air",
		Short: "AI-assisted multi-repository code assessment",
		Long: `air links external repositories into an assessment workspace,
classifies and analyzes them respecting cross-repo dependencies, and
aggregates the resulting findings.

Commands:
  init       Create a new assessment workspace
  link       Manage linked resources
  validate   Check and repair the workspace's symlink structure
  analyze    Run analyzers across one or more linked repos
  task       Manage the session task log
  findings   Collect, filter, and render findings`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default .air/config.yaml)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		s, err := loadSettings()
		if err != nil {
			return hintedError(err)
		}

		slog.SetDefault(newLogger(s))
		slog.Debug("settings loaded", "config", configPath, "worker.workers", s.Worker.Workers)

		return nil
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newLinkCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newTaskCommand())
	rootCmd.AddCommand(newFindingsCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version.String())
		},
	}
}

// loadSettings reads ambient configuration for the current invocation,
// honoring the persistent --config flag.
func loadSettings() (*settings.Settings, error) {
	return settings.Load(configPath)
}

// newLogger builds the structured logger for this invocation from
// LoggingSettings, overridden by --verbose/--quiet.
func newLogger(s *settings.Settings) *slog.Logger {
	level := slog.LevelInfo

	switch s.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if verbose {
		level = slog.LevelDebug
	}

	if quiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if s.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// hintedError appends airerr's actionable hint to a fatal error's
// message, matching §7's "message + hint + nonzero exit code" rule.
func hintedError(err error) error {
	if hint := airerr.Hint(err); hint != "" {
		return errors.Join(err, errors.New(hint))
	}

	return err
}
