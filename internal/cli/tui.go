package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"menu-builder/internal/api"
	"menu-builder/internal/logger"
	"menu-builder/internal/model"
	"menu-builder/internal/tui"
)

func newTUICmd(app *App) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "tui <menu>",
		Short: "Reorder a menu interactively (keyboard or mouse drag)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)

			menu, err := findMenu(cmd, be, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			// The terminal belongs to the panel, so logs go to a file or nowhere.
			log := slog.New(slog.NewTextHandler(io.Discard, nil))
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return writeErr(cmd, err)
				}
				defer f.Close()
				log = logger.New(f, "menubuilder", Version, app.cfg.LogLevel)
			}

			return tui.Run(cmd.Context(), tui.Options{Menu: menu, Backend: be, Logger: log})
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the panel is open")
	return cmd
}

func findMenu(cmd *cobra.Command, be api.Backend, slug string) (model.Menu, error) {
	menus, err := be.ListMenus(cmd.Context())
	if err != nil {
		return model.Menu{}, err
	}
	for _, m := range menus {
		if m.Slug == slug {
			return m, nil
		}
	}
	return model.Menu{}, fmt.Errorf("menu not found: %s", slug)
}
