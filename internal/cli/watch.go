package cli

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"menu-builder/internal/client"
)

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <menu>",
		Short: "Stream changes made to a menu through the API (one JSON document per change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.cfg.Server == "" {
				return writeErr(cmd, errors.New("watch needs --server"))
			}
			c, err := client.New(app.cfg.Server, nil)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			events, err := c.Watch(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			for ev := range events {
				if err := writeOut(cmd, app, map[string]any{"data": ev}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
