package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"menu-builder/internal/store"
)

func newMenusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menus",
		Short: "List, create and import menus",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List menus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)
			menus, err := be.ListMenus(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": menus})
		},
	}

	var name string
	createCmd := &cobra.Command{
		Use:   "create <slug>",
		Short: "Create an empty menu",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)
			m, err := be.CreateMenu(cmd.Context(), args[0], name)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   m,
				"_hints": []string{"menubuilder items add " + m.Slug + " --title <title> --url <url>"},
			})
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Display name")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace a menu's items with a nested YAML/JSON document (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   []byte
				err error
			)
			if strings.TrimSpace(args[0]) == "-" {
				b, err = readAll(cmd.InOrStdin())
			} else {
				b, err = os.ReadFile(args[0])
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			doc, err := store.ParseMenuDocument(b)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.localStore(cmd.Context(), "menus import")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()
			n, err := st.ImportMenu(cmd.Context(), doc)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   map[string]any{"menu": doc.Slug, "items": n},
				"_hints": []string{"menubuilder structure show " + doc.Slug},
			})
		},
	}

	cmd.AddCommand(listCmd, createCmd, importCmd)
	return cmd
}
