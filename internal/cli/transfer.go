package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

// NewExportCommand creates the export command.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write the current save to a compressed archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(a *app) (err error) {
				f, err := os.Create(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to create archive", err)
				}
				defer func() { err = multierr.Append(err, f.Close()) }()

				if err := a.session.Export(f); err != nil {
					return WrapExitError(ExitCommandError, "failed to export", err)
				}
				info, err := f.Stat()
				if err != nil {
					return err
				}
				data := map[string]any{"path": args[0], "bytes": info.Size()}
				return a.out.Success(data, fmt.Sprintf("Exported to %s (%s)\n", args[0], humanize.Bytes(uint64(info.Size()))))
			})
		},
	}
}

// NewImportCommand creates the import command.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the current save with an exported archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(a *app) error {
				f, err := os.Open(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to open archive", err)
				}
				defer f.Close()

				if err := a.session.Import(f); err != nil {
					return WrapExitError(ExitCommandError, "failed to import", err)
				}
				st := a.session.Stats()
				return a.out.Success(st, "Imported.\n"+formatStats(st))
			})
		},
	}
}
