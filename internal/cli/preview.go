package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"menu-builder/internal/menutree"
	"menu-builder/internal/model"
	"menu-builder/internal/publish"
	"menu-builder/internal/tui"
)

func newPreviewCmd(app *App) *cobra.Command {
	var (
		render    bool
		width     int
		showIDs   bool
		outDir    string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "preview <menu>",
		Short: "Render a menu as a Markdown outline",
		Example: strings.TrimSpace(`
  menubuilder preview main
  menubuilder preview main --render
  menubuilder preview main --out ./site/menus --overwrite
`),
		Args: cobra.ExactArgs(1),
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
			items, err := be.ListItems(cmd.Context(), menu.Slug, true)
			if err != nil {
				return writeErr(cmd, err)
			}
			opt := publish.RenderOptions{
				ShowIDs: showIDs,
				Resolve: func(typ model.ItemType, id string) (model.ReferenceStatus, error) {
					return be.ResolveReference(cmd.Context(), typ, id)
				},
			}
			tree := menutree.Build(items)

			if outDir != "" {
				res, err := publish.WriteMenu(outDir, menu, tree, publish.WriteOptions{RenderOptions: opt, Overwrite: overwrite})
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": res})
			}

			md, err := publish.RenderMenuMarkdown(menu, tree, opt)
			if err != nil {
				return writeErr(cmd, err)
			}
			if render {
				md = tui.RenderMarkdown(md, width)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), md)
			return err
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "Style the outline for the terminal")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Append item ids")
	cmd.Flags().StringVar(&outDir, "out", "", "Write <dir>/<menu>.md instead of printing")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file with --out")
	return cmd
}
