package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MJE43/dodepa/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit   int
	Offset  int
	Session string
	Summary bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the action journal (sqlite backend only)",
		Long: `Show the action journal, newest first. Every command invocation is a
separate session; --session narrows the listing to one of them.

Example:
  dodepa history --limit 50
  dodepa history --session 5f0c... --summary`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum entries to show")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "entries to skip")
	cmd.Flags().StringVar(&opts.Session, "session", "", "only show this session ID")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "aggregate instead of listing (requires --session)")

	return cmd
}

func showHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	sessionID := uuid.Nil
	if opts.Session != "" {
		id, err := uuid.Parse(opts.Session)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --session", err)
		}
		sessionID = id
	}
	if opts.Summary && sessionID == uuid.Nil {
		return NewExitError(ExitCommandError, "--summary requires --session")
	}

	return withApp(opts.RootOptions, cmd, func(a *app) error {
		if a.journal == nil {
			return NewExitError(ExitCommandError, "history requires the sqlite backend")
		}
		ctx := a.ctx(cmd)

		if opts.Summary {
			sum, err := a.journal.SummarizeJournal(ctx, sessionID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read journal", err)
			}
			return a.out.Success(sum, formatSummary(sum))
		}

		entries, total, err := a.journal.ListJournal(ctx, sessionID, opts.Limit, opts.Offset)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		data := map[string]any{"total": total, "entries": entries}
		return a.out.Success(data, formatJournal(entries, total))
	})
}

func formatJournal(entries []store.JournalEntry, total int64) string {
	if len(entries) == 0 {
		return "Journal is empty.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Showing %d of %s entries\n", len(entries), humanize.Comma(total))
	for _, e := range entries {
		mark := "ok"
		if !e.Accepted {
			mark = "rejected"
		}
		fmt.Fprintf(&b, "%-14s %-7s %-8s money %s (%+d)  %s\n",
			humanize.Time(e.CreatedAt), e.Action, mark,
			humanize.Comma(int64(e.After.Money)), e.Delta.Money, e.Message)
	}
	return b.String()
}

func formatSummary(sum store.JournalSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Actions:   %s (%s accepted, %s rejected)\n",
		humanize.Comma(sum.Total), humanize.Comma(sum.Accepted), humanize.Comma(sum.Rejected))
	fmt.Fprintf(&b, "Net money: %s\n", humanize.Comma(sum.NetMoney))
	actions := make([]string, 0, len(sum.ByAction))
	for action := range sum.ByAction {
		actions = append(actions, action)
	}
	slices.Sort(actions)
	for _, action := range actions {
		fmt.Fprintf(&b, "  %-8s %d\n", action, sum.ByAction[action])
	}
	return b.String()
}
