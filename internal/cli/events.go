package cli

import (
	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events <menu>",
		Short: "Show the audit log of a menu (newest first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)
			evs, err := be.ListEvents(cmd.Context(), args[0], limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": evs})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Max events to return (0 = all)")
	return cmd
}
