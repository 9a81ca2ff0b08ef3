package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"menu-builder/internal/api"
	"menu-builder/internal/client"
	"menu-builder/internal/config"
	"menu-builder/internal/format"
	"menu-builder/internal/logger"
	"menu-builder/internal/store"
)

// Version is stamped at build time with -ldflags "-X menu-builder/internal/cli.Version=...".
var Version = "dev"

type App struct {
	ConfigFile string
	DB         string
	Server     string
	Format     string
	PrettyJSON bool
	LogLevel   string

	cfg config.Config
	log *slog.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "menubuilder",
		Short:        "Build and reorder navigation menus",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Reorder a menu interactively
  menubuilder tui main

  # Scriptable commands
  menubuilder items list main --tree
  menubuilder structure move main mi-123 --over mi-456 --dx 30

  # Direct item lookup (shortcut for: menubuilder items show <item-id>)
  menubuilder mi-123
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(app.ConfigFile, cmd.Flags())
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		app.Format = cfg.Format
		app.PrettyJSON = cfg.Pretty

		level := cfg.LogLevel
		if level == "" {
			level = os.Getenv(logger.EnvVarLogLevel)
		}
		app.log = logger.New(cmd.ErrOrStderr(), "menubuilder", Version, level)
		return nil
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/menubuilder/config.yaml)")
	pf.StringVar(&app.DB, "db", "", "SQLite database path (default: ~/.menubuilder/menus.sqlite)")
	pf.StringVar(&app.Server, "server", "", "API base URL; when set, commands go through the HTTP API instead of the local database")
	pf.StringVar(&app.Format, "format", "", "Output format (json|yaml)")
	pf.BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	pf.StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTUICmd(app))
	cmd.AddCommand(newMenusCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newStructureCmd(app))
	cmd.AddCommand(newRefsCmd(app))
	cmd.AddCommand(newPreviewCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// backend returns the HTTP client when a server is configured, otherwise the local store.
// The returned closer must always be called.
func (app *App) backend(ctx context.Context) (api.Backend, io.Closer, error) {
	if app.cfg.Server != "" {
		c, err := client.New(app.cfg.Server, nil)
		if err != nil {
			return nil, nil, err
		}
		return c, nopCloser{}, nil
	}
	st, err := app.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return st, st, nil
}

func (app *App) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, app.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", app.cfg.DB, err)
	}
	return st, nil
}

// localStore is for commands the HTTP API does not expose.
func (app *App) localStore(ctx context.Context, what string) (*store.Store, error) {
	if app.cfg.Server != "" {
		return nil, errLocalOnly(what)
	}
	return app.openStore(ctx)
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

func isNotFound(err error) bool {
	var se *client.StatusError
	if errors.As(err, &se) {
		return se.Code == 404
	}
	return store.IsNotFound(err)
}
