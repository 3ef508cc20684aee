package commands

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
	"github.com/LiveData-Inc/air-toolkit/internal/tasklog"
)

func tasksDir() string {
	return filepath.Join(".", ".air", "tasks")
}

func newTaskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the session task log",
	}

	cmd.AddCommand(newTaskNewCommand())
	cmd.AddCommand(newTaskListCommand())
	cmd.AddCommand(newTaskArchiveCommand())
	cmd.AddCommand(newTaskRestoreCommand())
	cmd.AddCommand(newTaskSummaryCommand())

	return cmd
}

func newTaskNewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "new PROMPT",
		Short: "Create a new task file for the given prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := tasklog.Create(tasksDir(), args[0])
			if err != nil {
				return hintedError(err)
			}

			cmd.Println(record.Path)

			return nil
		},
	}
}

func newTaskListCommand() *cobra.Command {
	var (
		status          string
		search          string
		sortField       string
		includeArchived bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List task records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := tasklog.List(tasksDir(), tasklog.ListOptions{
				Status:          model.TaskOutcome(status),
				Search:          search,
				Sort:            tasklog.SortField(sortField),
				IncludeArchived: includeArchived,
			})
			if err != nil {
				return hintedError(err)
			}

			for _, r := range records {
				cmd.Printf("%-10s %-8s %s\n", r.Date, r.Outcome, r.Prompt)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by outcome: success, partial, in_progress, or blocked")
	cmd.Flags().StringVar(&search, "search", "", "substring match against prompt/actions/notes")
	cmd.Flags().StringVar(&sortField, "sort", string(tasklog.SortByDate), "sort field: date, title, or status")
	cmd.Flags().BoolVar(&includeArchived, "include-archived", false, "also list archived tasks")

	return cmd
}

func newTaskArchiveCommand() *cobra.Command {
	var (
		all      bool
		before   string
		strategy string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "archive [ID...]",
		Short: "Move matching task files into the archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := tasklog.ArchiveOptions{
				Selectors: args,
				All:       all,
				Strategy:  tasklog.ArchiveStrategy(strategy),
				DryRun:    dryRun,
			}

			if before != "" {
				cutoff, err := time.ParseInLocation("2006-01-02", before, time.Local)
				if err != nil {
					return err
				}

				opts.Before = &cutoff
			}

			archived, err := tasklog.Archive(tasksDir(), opts)
			if err != nil {
				return hintedError(err)
			}

			for _, path := range archived {
				cmd.Println(path)
			}

			cmd.Printf("%d task(s) archived\n", len(archived))

			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "archive every active task")
	cmd.Flags().StringVar(&before, "before", "", "archive tasks dated before this (YYYY-MM-DD)")
	cmd.Flags().StringVar(&strategy, "strategy", string(tasklog.StrategyByMonth), "grouping: by-month, by-quarter, or flat")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be archived without moving anything")

	return cmd
}

func newTaskRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore ID",
		Short: "Move an archived task back into the active task log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			restored, err := tasklog.Restore(tasksDir(), args[0])
			if err != nil {
				return hintedError(err)
			}

			cmd.Println(restored)

			return nil
		},
	}
}

func newTaskSummaryCommand() *cobra.Command {
	var (
		format          string
		since           string
		includeArchived bool
		output          string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Render aggregate statistics across task records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := tasklog.SummaryOptions{
				Format:          tasklog.SummaryFormat(format),
				IncludeArchived: includeArchived,
				Output:          output,
			}

			if since != "" {
				cutoff, err := time.ParseInLocation("2006-01-02", since, time.Local)
				if err != nil {
					return err
				}

				opts.Since = &cutoff
			}

			rendered, err := tasklog.Summary(tasksDir(), opts)
			if err != nil {
				return hintedError(err)
			}

			if output == "" {
				cmd.Println(rendered)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(tasklog.SummaryMarkdown), "output format: markdown, json, or text")
	cmd.Flags().StringVar(&since, "since", "", "only include tasks dated on or after this (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&includeArchived, "include-archived", true, "include archived tasks in the statistics")
	cmd.Flags().StringVar(&output, "output", "", "write the rendered summary to this file instead of stdout")

	return cmd
}
