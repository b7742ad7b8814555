package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewSavesCommand lists the save keys held by the sqlite backend.
func NewSavesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "saves",
		Short: "List stored save keys (sqlite backend only)",
		Long: `List the save keys in the database, most recently written first. The
active key is marked with "*"; switch keys with save_key or DODEPA_SAVE_KEY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(a *app) error {
				if a.journal == nil {
					return NewExitError(ExitCommandError, "saves requires the sqlite backend")
				}
				keys, err := a.journal.Keys(a.ctx(cmd))
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list saves", err)
				}
				data := map[string]any{"active": a.cfg.SaveKey, "keys": keys}
				return a.out.Success(data, formatSaves(keys, a.cfg.SaveKey))
			})
		},
	}
}

func formatSaves(keys []string, active string) string {
	if len(keys) == 0 {
		return "No saves yet.\n"
	}
	var b strings.Builder
	for _, k := range keys {
		mark := " "
		if k == active {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, k)
	}
	return b.String()
}
