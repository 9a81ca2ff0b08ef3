package cli

import (
	"github.com/spf13/cobra"

	"menu-builder/internal/menutree"
	"menu-builder/internal/reorder"
)

func newStructureCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Inspect and rearrange a menu's hierarchy",
	}

	showCmd := &cobra.Command{
		Use:   "show <menu>",
		Short: "Print the nested id structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)
			items, err := be.ListItems(cmd.Context(), args[0], false)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": menutree.ToStructure(menutree.Build(items))})
		},
	}

	var (
		overID string
		deltaX float64
		deltaY float64
		dryRun bool
	)
	moveCmd := &cobra.Command{
		Use:   "move <menu> <item-id>",
		Short: "Drop an item over another one, as if dragged with --dx pixels of horizontal travel",
		Long: `Replays a drag-and-drop gesture without the panel.

--over is the row the item is released on. --dx is the horizontal travel in pixels; every
30px is one nesting level (positive nests deeper, negative outdents). Dropping an item on
itself with a positive --dx nests it under the item above.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			menu, activeID := args[0], args[1]
			if overID == "" {
				overID = activeID
			}

			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)

			items, err := be.ListItems(cmd.Context(), menu, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			tree := menutree.Build(items)

			eng := reorder.NewEngine(reorder.DefaultConfig())
			proj, err := eng.Project(tree, activeID, overID, deltaX)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := eng.Apply(tree, reorder.Drop{
				ActiveID:   activeID,
				OverID:     overID,
				Projection: proj,
				DeltaX:     deltaX,
				DeltaY:     deltaY,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			structure := menutree.ToStructure(res.Tree)
			if res.Changed && !dryRun {
				if err := be.SaveStructure(cmd.Context(), menu, structure); err != nil {
					return writeErr(cmd, err)
				}
				app.log.Debug("structure saved", "menu", menu, "item", activeID, "move", res.Move.Kind)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"projection": proj,
					"move":       res.Move,
					"changed":    res.Changed,
					"saved":      res.Changed && !dryRun,
					"structure":  structure,
				},
			})
		},
	}
	moveCmd.Flags().StringVar(&overID, "over", "", "Item the drag is released over (default: the item itself)")
	moveCmd.Flags().Float64Var(&deltaX, "dx", 0, "Horizontal travel in pixels")
	moveCmd.Flags().Float64Var(&deltaY, "dy", 0, "Vertical travel in pixels")
	moveCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the move without saving it")

	cmd.AddCommand(showCmd, moveCmd)
	return cmd
}
