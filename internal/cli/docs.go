package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"menu-builder/internal/docs"
	"menu-builder/internal/tui"
)

func newDocsCmd(app *App) *cobra.Command {
	var (
		render bool
		width  int
	)
	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Read the built-in guides (no topic lists them)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, map[string]any{
					"data":   docs.Topics(),
					"_hints": []string{"menubuilder docs reordering --render"},
				})
			}
			body, ok := docs.Get(args[0])
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown topic %q (available: %s)", args[0], strings.Join(docs.Topics(), ", ")))
			}
			if render {
				body = tui.RenderMarkdown(body, width)
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), body)
			return err
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "Style the guide for the terminal")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	return cmd
}
