package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"menu-builder/internal/model"
	"menu-builder/internal/reorder"
)

type placement struct {
	id     string
	parent string
	ord    int
	depth  int
}

// flattenStructure walks the payload in pre-order, validating ids, duplicates and depth.
func flattenStructure(nodes []model.StructureNode) ([]placement, error) {
	var out []placement
	seen := map[string]bool{}
	var walk func(nodes []model.StructureNode, parent string, depth int) error
	walk = func(nodes []model.StructureNode, parent string, depth int) error {
		for i, n := range nodes {
			id := strings.TrimSpace(n.ID)
			if id == "" {
				return ValidationError{Field: "id", Reason: "must not be empty"}
			}
			if seen[id] {
				return ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate id %s", id)}
			}
			if depth > reorder.MaxDepth-1 {
				return ValidationError{Field: "children", Reason: fmt.Sprintf("%s %s", id, reorder.ErrMaxDepth)}
			}
			seen[id] = true
			out = append(out, placement{id: id, parent: parent, ord: i, depth: depth})
			if err := walk(n.Children, id, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(nodes, "", 0); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveStructure rewrites parent and order for every id in the nested payload, in one transaction.
// Ids absent from the payload keep their parent and follow that parent's listed children in their
// previous order, so sibling orders stay contiguous. The resulting depth of every item is checked.
func (s *Store) SaveStructure(ctx context.Context, menu string, nodes []model.StructureNode) error {
	places, err := flattenStructure(nodes)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getMenu(ctx, tx, menu); err != nil {
			return err
		}
		items, err := listItems(ctx, tx, menu)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(items))
		for _, it := range items {
			known[it.ID] = true
		}
		for _, p := range places {
			if !known[p.id] {
				return fmt.Errorf("%w: %s", ErrUnknownItem, p.id)
			}
		}

		final, err := settlePlacements(items, places)
		if err != nil {
			return err
		}

		nowMs := time.Now().UTC().UnixMilli()
		for _, p := range final {
			if _, err := tx.ExecContext(ctx, `UPDATE menu_items SET parent_id = ?, ord = ?, updated_at_unixms = ? WHERE id = ? AND menu = ?`,
				p.parent, p.ord, nowMs, p.id, menu); err != nil {
				return err
			}
		}
		return appendEvent(ctx, tx, "menu.structure", menu, menu, map[string]any{
			"items":     len(places),
			"structure": nodes,
		})
	})
}

// settlePlacements merges the payload placements with the stored items that the payload leaves out
// and returns the placements that differ from storage.
func settlePlacements(items []model.MenuItem, places []placement) ([]placement, error) {
	stored := make(map[string]model.MenuItem, len(items))
	for _, it := range items {
		stored[it.ID] = it
	}
	listed := make(map[string]bool, len(places))
	parent := make(map[string]string, len(items))
	for _, p := range places {
		listed[p.id] = true
		parent[p.id] = p.parent
	}

	// Stored parents that no longer exist read as root, matching tree building.
	var rest []model.MenuItem
	for _, it := range items {
		if listed[it.ID] {
			continue
		}
		pid := it.Parent()
		if _, ok := stored[pid]; !ok {
			pid = ""
		}
		parent[it.ID] = pid
		rest = append(rest, it)
	}
	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].Order != rest[j].Order {
			return rest[i].Order < rest[j].Order
		}
		return rest[i].ID < rest[j].ID
	})

	children := map[string][]string{}
	for _, p := range places {
		children[p.parent] = append(children[p.parent], p.id)
	}
	for _, it := range rest {
		pid := parent[it.ID]
		children[pid] = append(children[pid], it.ID)
	}

	var out []placement
	var walk func(pid string, depth int) error
	walk = func(pid string, depth int) error {
		for i, id := range children[pid] {
			if depth > reorder.MaxDepth-1 {
				return ValidationError{Field: "children", Reason: fmt.Sprintf("%s %s", id, reorder.ErrMaxDepth)}
			}
			it := stored[id]
			if it.Parent() != pid || it.Order != i {
				out = append(out, placement{id: id, parent: pid, ord: i, depth: depth})
			}
			if err := walk(id, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk("", 0); err != nil {
		return nil, err
	}
	return out, nil
}
