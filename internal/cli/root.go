package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/MJE43/dodepa/internal/session"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
	Backend    string
	DataDir    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the dodepa CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dodepa",
		Short: "dodepa - a hustle-and-gamble resource sim",
		Long: `dodepa is a small resource simulation: earn money with side jobs and
shady deals, borrow when broke, take bank credit with interest, gamble the
bet at the casino and pay your debts down. Progress is saved after every
action.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (default: <config dir>/dodepa/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend (sqlite|keyring|memory), overrides config")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "data directory, overrides config")

	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewLogsCommand(opts))
	cmd.AddCommand(newActionCommand(opts, "gamble", "Stake the current bet at the casino", (*session.Session).PlayCasino))
	cmd.AddCommand(newActionCommand(opts, "work", "Take a side job", (*session.Session).WorkJob))
	cmd.AddCommand(newActionCommand(opts, "shady", "Pull a shady deal", (*session.Session).ShadyDeal))
	cmd.AddCommand(newActionCommand(opts, "borrow", "Borrow money from a friend", (*session.Session).BorrowMoney))
	cmd.AddCommand(newActionCommand(opts, "credit", "Take a bank credit", (*session.Session).TakeCredit))
	cmd.AddCommand(newActionCommand(opts, "help-friend", "Help a friend for reputation", (*session.Session).HelpFriend))
	cmd.AddCommand(newActionCommand(opts, "reset", "Reset all progress", (*session.Session).ResetGame))
	cmd.AddCommand(NewRepayCommand(opts))
	cmd.AddCommand(NewBetCommand(opts))
	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewAutoplayCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewActionsCommand(opts))
	cmd.AddCommand(NewSavesCommand(opts))

	return cmd
}
