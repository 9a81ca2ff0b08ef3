package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"menu-builder/internal/api"
	"menu-builder/internal/menutree"
	"menu-builder/internal/model"
	"menu-builder/internal/store"
)

type itemFlags struct {
	title, typ, url, ref, target, parent, icon, css string
}

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage menu items",
	}

	var tree, status bool
	listCmd := &cobra.Command{
		Use:   "list <menu>",
		Short: "List items in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)
			items, err := be.ListItems(cmd.Context(), args[0], status)
			if err != nil {
				return writeErr(cmd, err)
			}
			nested := menutree.Build(items)
			if tree {
				return writeOut(cmd, app, map[string]any{"data": nested})
			}
			return writeOut(cmd, app, map[string]any{"data": menutree.Flatten(nested, nil)})
		},
	}
	listCmd.Flags().BoolVar(&tree, "tree", false, "Nest children under their parents")
	listCmd.Flags().BoolVar(&status, "status", false, "Resolve reference status for each item")

	showCmd := &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)
			it, menu, err := lookupItem(cmd, be, strings.TrimSpace(args[0]))
			if isNotFound(err) {
				return writeErr(cmd, fmt.Errorf("%w (list ids with: menubuilder items list <menu>)", err))
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   map[string]any{"menu": menu, "item": it},
				"_hints": []string{"menubuilder structure move " + menu + " " + it.ID + " --over <item-id> --dx <px>"},
			})
		},
	}

	var add itemFlags
	addCmd := &cobra.Command{
		Use:   "add <menu>",
		Short: "Append an item to a menu (last root item, or last child of --parent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)
			it, err := be.CreateItem(cmd.Context(), args[0], model.MenuItem{
				Title:       add.title,
				Type:        model.ItemType(add.typ),
				URL:         add.url,
				ReferenceID: add.ref,
				Target:      model.Target(add.target),
				IconClass:   add.icon,
				CSSClass:    add.css,
				ParentID:    model.StringPtr(add.parent),
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
	addCmd.Flags().StringVar(&add.title, "title", "", "Display title")
	addCmd.Flags().StringVar(&add.typ, "type", string(model.ItemTypeCustom), "Item type (custom|category|product|page|post)")
	addCmd.Flags().StringVar(&add.url, "url", "", "Link URL (required for custom items)")
	addCmd.Flags().StringVar(&add.ref, "ref", "", "Reference id (required for non-custom items)")
	addCmd.Flags().StringVar(&add.target, "target", string(model.TargetSelf), "Link target (_self|_blank)")
	addCmd.Flags().StringVar(&add.parent, "parent", "", "Parent item id")
	addCmd.Flags().StringVar(&add.icon, "icon", "", "Icon CSS class")
	addCmd.Flags().StringVar(&add.css, "css", "", "Extra CSS class")

	var upd itemFlags
	updateCmd := &cobra.Command{
		Use:   "update <menu> <item-id>",
		Short: "Edit item fields (structure is changed with `structure move`)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p store.ItemPatch
			f := cmd.Flags()
			if f.Changed("title") {
				p.Title = &upd.title
			}
			if f.Changed("type") {
				t := model.ItemType(upd.typ)
				p.Type = &t
			}
			if f.Changed("url") {
				p.URL = &upd.url
			}
			if f.Changed("ref") {
				p.ReferenceID = &upd.ref
			}
			if f.Changed("target") {
				t := model.Target(upd.target)
				p.Target = &t
			}
			if f.Changed("icon") {
				p.IconClass = &upd.icon
			}
			if f.Changed("css") {
				p.CSSClass = &upd.css
			}
			if p == (store.ItemPatch{}) {
				return writeErr(cmd, fmt.Errorf("nothing to update; pass at least one field flag"))
			}

			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)
			it, err := be.UpdateItem(cmd.Context(), args[0], args[1], p)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
	updateCmd.Flags().StringVar(&upd.title, "title", "", "Display title")
	updateCmd.Flags().StringVar(&upd.typ, "type", "", "Item type")
	updateCmd.Flags().StringVar(&upd.url, "url", "", "Link URL")
	updateCmd.Flags().StringVar(&upd.ref, "ref", "", "Reference id")
	updateCmd.Flags().StringVar(&upd.target, "target", "", "Link target (_self|_blank)")
	updateCmd.Flags().StringVar(&upd.icon, "icon", "", "Icon CSS class")
	updateCmd.Flags().StringVar(&upd.css, "css", "", "Extra CSS class")

	deleteCmd := &cobra.Command{
		Use:   "delete <menu> <item-id>",
		Short: "Delete an item and its descendants",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)
			removed, err := be.DeleteItem(cmd.Context(), args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"removed": removed}})
		},
	}

	duplicateCmd := &cobra.Command{
		Use:   "duplicate <menu> <item-id>",
		Short: "Copy an item next to the original",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)
			it, err := be.DuplicateItem(cmd.Context(), args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}

	cmd.AddCommand(listCmd, showCmd, addCmd, updateCmd, deleteCmd, duplicateCmd)
	return cmd
}

// lookupItem finds an item by id without knowing its menu. The store indexes items globally;
// through the API every menu is scanned.
func lookupItem(cmd *cobra.Command, be api.Backend, id string) (model.MenuItem, string, error) {
	if st, ok := be.(*store.Store); ok {
		return st.GetItem(cmd.Context(), id)
	}
	menus, err := be.ListMenus(cmd.Context())
	if err != nil {
		return model.MenuItem{}, "", err
	}
	for _, m := range menus {
		items, err := be.ListItems(cmd.Context(), m.Slug, true)
		if err != nil {
			return model.MenuItem{}, "", err
		}
		for _, it := range items {
			if it.ID == id {
				return it, m.Slug, nil
			}
		}
	}
	return model.MenuItem{}, "", store.NotFoundError{Kind: "item", ID: id}
}
