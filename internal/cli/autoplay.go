package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MJE43/dodepa/internal/autoplay"
	"github.com/MJE43/dodepa/internal/store"
)

// AutoplayOptions holds flags for the autoplay command.
type AutoplayOptions struct {
	*RootOptions
	Steps int
	Seed  uint32
}

// NewAutoplayCommand creates the autoplay command.
func NewAutoplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AutoplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "autoplay <script.js>",
		Short: "Let a strategy script play",
		Long: `Let a JavaScript strategy script play for a bounded number of steps.

The script defines next(), returning an action name, {action: "repay",
amount: n} or null to stop. It can read money, energy, reputation, debt,
bet, step and last, and call log(), stop(), setbet(n) and random().

Example:
  dodepa autoplay grind.js --steps 50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAutoplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Steps, "steps", autoplay.DefaultMaxSteps, "maximum number of actions")
	cmd.Flags().Uint32Var(&opts.Seed, "seed", 1, "seed for the script's random()")

	return cmd
}

func runAutoplay(opts *AutoplayOptions, path string, cmd *cobra.Command) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read script", err)
	}

	return withApp(opts.RootOptions, cmd, func(a *app) error {
		rep, err := autoplay.Run(a.ctx(cmd), a.session, string(source), autoplay.Options{
			MaxSteps: opts.Steps,
			Seed:     opts.Seed,
			Logger:   a.logger,
		})
		if a.journal != nil {
			run := store.Run{
				ID:           rep.RunID,
				SessionID:    a.session.ID(),
				ScriptSource: string(source),
				Steps:        rep.Steps,
				Accepted:     rep.Accepted,
				Rejected:     rep.Rejected,
				Reason:       string(rep.Reason),
				StopMessage:  rep.StopMessage,
				Final:        rep.Final,
			}
			if rerr := a.journal.RecordRun(a.ctx(cmd), run); rerr != nil {
				a.logger.Warn("failed to record autoplay run", "run", rep.RunID, "error", rerr)
			}
		}
		if outErr := a.out.Success(rep, formatReport(rep)); outErr != nil {
			return outErr
		}
		if err != nil {
			return WrapExitError(ExitFailure, "script failed", err)
		}
		return nil
	})
}

func formatReport(rep autoplay.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %s after %s steps (%s accepted, %s rejected)\n",
		rep.RunID, rep.Reason, humanize.Comma(int64(rep.Steps)),
		humanize.Comma(int64(rep.Accepted)), humanize.Comma(int64(rep.Rejected)))
	if rep.StopMessage != "" {
		fmt.Fprintf(&b, "Stop message: %s\n", rep.StopMessage)
	}
	for _, l := range rep.Logs {
		fmt.Fprintf(&b, "  [%d] %s\n", l.Step, l.Message)
	}
	b.WriteString(formatStats(rep.Final))
	return b.String()
}
