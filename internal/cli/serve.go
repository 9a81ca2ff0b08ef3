package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"menu-builder/internal/api"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the menu API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.localStore(cmd.Context(), "serve")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := api.New(st, api.WithAddr(app.cfg.Addr), api.WithLogger(app.log))
			if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default :9876)")
	return cmd
}
