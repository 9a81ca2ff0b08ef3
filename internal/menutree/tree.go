// Package menutree converts between the flat (ParentID + Order) and nested representations
// of a menu and provides the structural helpers the reorder engine builds on.
package menutree

import (
	"sort"
	"strings"

	"menu-builder/internal/model"
)

// Build groups a flat list into a nested tree. Items whose parent is missing (or that only
// reach each other through a parent cycle) become roots. Siblings are sorted by Order; ties keep
// input order. The input is not modified.
func Build(items []model.MenuItem) []model.MenuItem {
	present := make(map[string]bool, len(items))
	for _, it := range items {
		present[it.ID] = true
	}

	children := map[string][]model.MenuItem{}
	var roots []model.MenuItem
	for _, it := range items {
		it.Children = nil
		pid := it.Parent()
		// A missing parent (deleted elsewhere, or never synced) keeps the subtree visible at root.
		if pid == "" || !present[pid] || pid == it.ID {
			roots = append(roots, it)
			continue
		}
		children[pid] = append(children[pid], it)
	}
	sortByOrder(roots)
	for pid := range children {
		sortByOrder(children[pid])
	}

	seen := make(map[string]bool, len(items))
	var attach func(it model.MenuItem) model.MenuItem
	attach = func(it model.MenuItem) model.MenuItem {
		seen[it.ID] = true
		var kids []model.MenuItem
		for _, ch := range children[it.ID] {
			if seen[ch.ID] {
				continue
			}
			kids = append(kids, attach(ch))
		}
		it.Children = kids
		return it
	}

	out := make([]model.MenuItem, 0, len(roots))
	for _, r := range roots {
		if seen[r.ID] {
			continue
		}
		out = append(out, attach(r))
	}
	// Anything still unseen is part of a parent cycle; break it at the first member in input order.
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		it.Children = nil
		out = append(out, attach(it))
	}
	return out
}

func sortByOrder(xs []model.MenuItem) {
	sort.SliceStable(xs, func(i, j int) bool { return xs[i].Order < xs[j].Order })
}

// Flatten walks the tree depth-first (parent before children) and returns each node with
// Children stripped. A node's own ParentID wins over the parent supplied by the traversal.
func Flatten(tree []model.MenuItem, parentID *string) []model.MenuItem {
	var out []model.MenuItem
	var walk func(nodes []model.MenuItem, pid *string)
	walk = func(nodes []model.MenuItem, pid *string) {
		for _, n := range nodes {
			flat := n
			flat.Children = nil
			if flat.ParentID == nil && pid != nil {
				p := *pid
				flat.ParentID = &p
			}
			out = append(out, flat)
			id := n.ID
			walk(n.Children, &id)
		}
	}
	walk(tree, parentID)
	return out
}

// ToStructure projects the tree to the id + children wire shape.
func ToStructure(tree []model.MenuItem) []model.StructureNode {
	out := make([]model.StructureNode, 0, len(tree))
	for _, n := range tree {
		out = append(out, model.StructureNode{ID: n.ID, Children: ToStructure(n.Children)})
	}
	return out
}

// Find returns the node with the given id, with its live children, or nil.
func Find(tree []model.MenuItem, id string) *model.MenuItem {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	for i := range tree {
		if tree[i].ID == id {
			return &tree[i]
		}
		if found := Find(tree[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}

// Depth counts resolvable parent hops from the item to a root (roots are depth 0).
// Iteration is capped at len(flat) so corrupt parent cycles still terminate.
func Depth(id string, flat []model.MenuItem) int {
	parents := make(map[string]string, len(flat))
	for _, it := range flat {
		parents[it.ID] = it.Parent()
	}
	depth := 0
	cur := parents[id]
	for cur != "" && depth < len(flat) {
		pid, ok := parents[cur]
		if !ok {
			break
		}
		depth++
		cur = pid
	}
	return depth
}

// SubtreeDepth is the height of the item's descendant chain: 0 for a leaf.
func SubtreeDepth(it model.MenuItem) int {
	if len(it.Children) == 0 {
		return 0
	}
	max := 0
	for _, ch := range it.Children {
		if d := SubtreeDepth(ch); d > max {
			max = d
		}
	}
	return 1 + max
}

// IsAncestor reports whether ancestorID is id itself or appears on id's parent chain.
func IsAncestor(flat []model.MenuItem, ancestorID, id string) bool {
	parents := make(map[string]string, len(flat))
	for _, it := range flat {
		parents[it.ID] = it.Parent()
	}
	cur := id
	for hops := 0; cur != "" && hops <= len(flat); hops++ {
		if cur == ancestorID {
			return true
		}
		next, ok := parents[cur]
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

// AncestorAtDepth walks up from id and returns the ancestor (or id itself) that sits at depth.
func AncestorAtDepth(flat []model.MenuItem, id string, depth int) (string, bool) {
	parents := make(map[string]string, len(flat))
	for _, it := range flat {
		parents[it.ID] = it.Parent()
	}
	if _, ok := parents[id]; !ok {
		return "", false
	}
	cur := id
	for d := Depth(id, flat); d > depth; d-- {
		cur = parents[cur]
	}
	return cur, cur != ""
}

// Clone deep-copies a tree.
func Clone(tree []model.MenuItem) []model.MenuItem {
	if tree == nil {
		return nil
	}
	out := make([]model.MenuItem, len(tree))
	for i, n := range tree {
		if n.ParentID != nil {
			p := *n.ParentID
			n.ParentID = &p
		}
		if n.ReferenceStatus != nil {
			rs := *n.ReferenceStatus
			n.ReferenceStatus = &rs
		}
		n.Children = Clone(n.Children)
		out[i] = n
	}
	return out
}

// Renumber returns a copy of the tree where every node's Order is its 0-based index among its
// siblings and every ParentID matches the node it is nested under.
func Renumber(tree []model.MenuItem) []model.MenuItem {
	return renumber(Clone(tree), nil)
}

func renumber(nodes []model.MenuItem, parentID *string) []model.MenuItem {
	for i := range nodes {
		nodes[i].Order = i
		if parentID == nil {
			nodes[i].ParentID = nil
		} else {
			p := *parentID
			nodes[i].ParentID = &p
		}
		id := nodes[i].ID
		nodes[i].Children = renumber(nodes[i].Children, &id)
	}
	return nodes
}

// Remove returns a copy of the tree without the node (and its subtree), plus the removed node.
func Remove(tree []model.MenuItem, id string) ([]model.MenuItem, model.MenuItem, bool) {
	out := Clone(tree)
	removed, ok := removeIn(&out, id)
	return out, removed, ok
}

func removeIn(nodes *[]model.MenuItem, id string) (model.MenuItem, bool) {
	for i := range *nodes {
		if (*nodes)[i].ID == id {
			removed := (*nodes)[i]
			*nodes = append((*nodes)[:i:i], (*nodes)[i+1:]...)
			return removed, true
		}
		if removed, ok := removeIn(&(*nodes)[i].Children, id); ok {
			return removed, true
		}
	}
	return model.MenuItem{}, false
}

// Insert places node among the children of parentID ("" for root), before or after the sibling
// anchorID. An empty or unknown anchor appends. The tree is copied; ok is false when the parent
// does not exist.
func Insert(tree []model.MenuItem, parentID string, node model.MenuItem, anchorID string, after bool) ([]model.MenuItem, bool) {
	out := Clone(tree)
	sibs := &out
	if parentID != "" {
		p := Find(out, parentID)
		if p == nil {
			return tree, false
		}
		sibs = &p.Children
	}

	at := len(*sibs)
	for i := range *sibs {
		if (*sibs)[i].ID == anchorID {
			at = i
			if after {
				at = i + 1
			}
			break
		}
	}
	next := make([]model.MenuItem, 0, len(*sibs)+1)
	next = append(next, (*sibs)[:at]...)
	next = append(next, node)
	next = append(next, (*sibs)[at:]...)
	*sibs = next
	return out, true
}

// Row is one visible line of the rendered tree.
type Row struct {
	Item        model.MenuItem
	Depth       int
	HasChildren bool
	Collapsed   bool
}

// Visible lists the rows a renderer shows: pre-order, skipping descendants of collapsed nodes.
func Visible(tree []model.MenuItem, collapsed map[string]bool) []Row {
	var out []Row
	var walk func(nodes []model.MenuItem, depth int)
	walk = func(nodes []model.MenuItem, depth int) {
		for _, n := range nodes {
			item := n
			item.Children = nil
			out = append(out, Row{
				Item:        item,
				Depth:       depth,
				HasChildren: len(n.Children) > 0,
				Collapsed:   collapsed[n.ID],
			})
			if collapsed[n.ID] {
				continue
			}
			walk(n.Children, depth+1)
		}
	}
	walk(tree, 0)
	return out
}
