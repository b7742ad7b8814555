package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MJE43/dodepa/internal/games"
	"github.com/MJE43/dodepa/internal/session"
)

type actionOutput struct {
	Result games.Result `json:"result"`
	State  games.State  `json:"state"`
}

// report prints an action result. Rejections exit with ExitFailure.
func (a *app) report(res games.Result) error {
	data := actionOutput{Result: res, State: a.session.Stats()}
	text := formatResult(res, data.State)
	if !res.Accepted {
		if err := a.out.Rejected(data, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "rejected: "+res.Message)
	}
	return a.out.Success(data, text)
}

func newActionCommand(opts *RootOptions, use, short string, act func(*session.Session) games.Result) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(a *app) error {
				return a.report(act(a.session))
			})
		},
	}
}

// NewRepayCommand creates the repay command.
func NewRepayCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repay [amount]",
		Short: "Pay down the debt",
		Long: `Pay down the debt.

Without an amount the fixed installment is paid. With an amount, at least
the minimum repayment must be given; anything above the remaining debt is
not taken.

Example:
  dodepa repay
  dodepa repay 2500`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var amount int
			if len(args) == 1 {
				n, err := strconv.Atoi(strings.ReplaceAll(args[0], ",", ""))
				if err != nil || n <= 0 {
					return WrapExitError(ExitCommandError, "invalid amount", fmt.Errorf("%q is not a positive integer", args[0]))
				}
				amount = n
			}
			return withApp(opts, cmd, func(a *app) error {
				if amount == 0 {
					return a.report(a.session.RepayDebt())
				}
				return a.report(a.session.RepayDebtAmount(amount))
			})
		},
	}
}

// NewBetCommand creates the bet command.
func NewBetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bet <value>",
		Short: "Set the casino stake",
		Long: `Set the casino stake. Fractions are rounded down and values below the
minimum bet are raised to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid bet", err)
			}
			return withApp(opts, cmd, func(a *app) error {
				a.session.SetBet(value)
				st := a.session.Stats()
				return a.out.Success(st, fmt.Sprintf("Bet set to %s\n", humanize.Comma(int64(st.Bet))))
			})
		},
	}
}

// NewPlayCommand creates the play command.
func NewPlayCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "play <action>",
		Short: "Run an action by name or alias",
		Long: `Run an action by name or alias. See "dodepa actions" for the list.

Example:
  dodepa play casino
  dodepa play job`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(a *app) error {
				res, err := a.session.Dispatch(args[0])
				if errors.Is(err, session.ErrUnknownAction) {
					return WrapExitError(ExitCommandError, "cannot play", err)
				}
				if err != nil {
					return err
				}
				return a.report(res)
			})
		},
	}
}

// NewActionsCommand lists the registered actions.
func NewActionsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List actions and their aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := games.Actions()
			var b strings.Builder
			for _, s := range specs {
				names := s.ID
				if len(s.Aliases) > 0 {
					names += " (" + strings.Join(s.Aliases, ", ") + ")"
				}
				fmt.Fprintf(&b, "%-28s %s\n", names, s.Description)
			}
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(specs, b.String())
		},
	}
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show current resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(a *app) error {
				st := a.session.Stats()
				return a.out.Success(st, formatStats(st))
			})
		},
	}
}

// LogsOptions holds flags for the logs command.
type LogsOptions struct {
	*RootOptions
	Limit int
}

// NewLogsCommand creates the logs command.
func NewLogsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the event log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts.RootOptions, cmd, func(a *app) error {
				logs := a.session.Logs()
				if opts.Limit > 0 && len(logs) > opts.Limit {
					logs = logs[:opts.Limit]
				}
				return a.out.Success(logs, formatLogs(logs))
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show at most n entries (0 = all)")

	return cmd
}
