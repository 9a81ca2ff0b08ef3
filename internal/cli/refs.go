package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"menu-builder/internal/model"
	"menu-builder/internal/store"
)

func newRefsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "refs",
		Aliases: []string{"references"},
		Short:   "Manage the categories, products, pages and posts menu items can point at",
	}

	var listType string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List reference targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := parseRefType(listType, true)
			if err != nil {
				return writeErr(cmd, err)
			}
			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)
			refs, err := be.ListReferences(cmd.Context(), typ)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": refs})
		},
	}
	listCmd.Flags().StringVar(&listType, "type", "", "Only this type (category|product|page|post)")

	var (
		title    string
		url      string
		inactive bool
	)
	setCmd := &cobra.Command{
		Use:   "set <type> <id>",
		Short: "Create or update a reference target",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := parseRefType(args[0], false)
			if err != nil {
				return writeErr(cmd, err)
			}
			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)
			ref, err := be.UpsertReference(cmd.Context(), store.ReferenceTarget{
				Type:   typ,
				ID:     args[1],
				Title:  title,
				URL:    url,
				Active: !inactive,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ref})
		},
	}
	setCmd.Flags().StringVar(&title, "title", "", "Display title")
	setCmd.Flags().StringVar(&url, "url", "", "Canonical URL (default: /<type>/<id>)")
	setCmd.Flags().BoolVar(&inactive, "inactive", false, "Mark the target unpublished")

	resolveCmd := &cobra.Command{
		Use:   "resolve <type> <id>",
		Short: "Report whether a reference exists and is active",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := parseRefType(args[0], false)
			if err != nil {
				return writeErr(cmd, err)
			}
			be, closer, err := app.backend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeQuietly(closer)
			rs, err := be.ResolveReference(cmd.Context(), typ, args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": rs})
		},
	}

	cmd.AddCommand(listCmd, setCmd, resolveCmd)
	return cmd
}

func parseRefType(s string, allowEmpty bool) (model.ItemType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" && allowEmpty {
		return "", nil
	}
	t := model.ItemType(s)
	if !t.IsReference() {
		return "", fmt.Errorf("invalid reference type %q (expected category|product|page|post)", s)
	}
	return t, nil
}
