package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MJE43/dodepa/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Limit  int
	Script bool
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded autoplay runs (sqlite backend only)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRuns(opts, args, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum runs to show")
	cmd.Flags().BoolVar(&opts.Script, "script", false, "print the script source of a single run")

	return cmd
}

func showRuns(opts *RunsOptions, args []string, cmd *cobra.Command) error {
	var runID uuid.UUID
	if len(args) == 1 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid run id", err)
		}
		runID = id
	}

	return withApp(opts.RootOptions, cmd, func(a *app) error {
		if a.journal == nil {
			return NewExitError(ExitCommandError, "runs requires the sqlite backend")
		}
		ctx := a.ctx(cmd)

		if runID != uuid.Nil {
			run, err := a.journal.GetRun(ctx, runID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read run", err)
			}
			text := formatRuns([]store.Run{run}, 1)
			if opts.Script {
				text = run.ScriptSource + "\n"
			}
			return a.out.Success(run, text)
		}

		runs, total, err := a.journal.ListRuns(ctx, opts.Limit, 0)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read runs", err)
		}
		return a.out.Success(map[string]any{"total": total, "runs": runs}, formatRuns(runs, total))
	})
}

func formatRuns(runs []store.Run, total int64) string {
	if len(runs) == 0 {
		return "No autoplay runs recorded.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Showing %d of %s runs\n", len(runs), humanize.Comma(total))
	for _, r := range runs {
		fmt.Fprintf(&b, "%s  %-14s %-9s %3d steps  money %s\n",
			r.ID, humanize.Time(r.CreatedAt), r.Reason, r.Steps, humanize.Comma(int64(r.Final.Money)))
	}
	return b.String()
}
