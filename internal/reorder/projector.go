package reorder

import (
	"math"

	"menu-builder/internal/menutree"
	"menu-builder/internal/model"
)

// Projection is where the active item would land if dropped now.
type Projection struct {
	OverID string `json:"overId"`
	// Depth is clamped to what the menu can hold; Invalid reports that the gesture asked for more.
	Depth   int  `json:"depth"`
	Invalid bool `json:"isInvalid"`
	// ParentID is the candidate parent at Depth ("" for root).
	ParentID string `json:"parentId,omitempty"`
}

// NestsUnder reports whether the projection would make the active item a child of the hovered row.
func (p Projection) NestsUnder() bool {
	return p.ParentID != "" && p.ParentID == p.OverID
}

// Project computes the landing depth for a drag of activeID over overID with a cumulative
// horizontal displacement of deltaX pixels.
//
// Depth is derived from the active item's own depth plus deliberate horizontal travel, not from
// the hovered row, so sweeping over rows at other depths does not make the indicator jump.
func Project(tree []model.MenuItem, activeID, overID string, deltaX float64, cfg Config) (Projection, error) {
	cfg = cfg.normalized()
	active := menutree.Find(tree, activeID)
	if active == nil || menutree.Find(tree, overID) == nil {
		return Projection{}, ErrNotFound
	}
	flat := menutree.Flatten(tree, nil)

	activeDepth := menutree.Depth(activeID, flat)
	overDepth := menutree.Depth(overID, flat)
	subtreeDepth := menutree.SubtreeDepth(*active)

	projected := activeDepth + levelChange(deltaX, cfg.IndentationWidth)
	// Never deeper than one level below the hovered row.
	if projected > overDepth+1 {
		projected = overDepth + 1
	}
	if projected < 0 {
		projected = 0
	}

	invalid := projected >= cfg.MaxDepth || projected+subtreeDepth > cfg.MaxDepth-1

	depth := projected
	if ceiling := cfg.MaxDepth - 1 - subtreeDepth; depth > ceiling {
		depth = ceiling
	}
	if depth < 0 {
		depth = 0
	}

	return Projection{
		OverID:   overID,
		Depth:    depth,
		Invalid:  invalid,
		ParentID: parentAtDepth(flat, overID, overDepth, depth),
	}, nil
}

// levelChange rounds half up (toward +Inf), matching how pointer offsets snap to levels.
func levelChange(deltaX, width float64) int {
	return int(math.Floor(deltaX/width + 0.5))
}

// parentAtDepth derives the parent an item would get when dropped over overID at depth.
func parentAtDepth(flat []model.MenuItem, overID string, overDepth, depth int) string {
	switch {
	case depth <= 0:
		return ""
	case depth > overDepth:
		return overID
	default:
		anchor, ok := menutree.AncestorAtDepth(flat, overID, depth)
		if !ok {
			return ""
		}
		return resolvedParent(flat, anchor)
	}
}

// resolvedParent is the item's parent id if that parent exists, otherwise "" (orphans are roots).
func resolvedParent(flat []model.MenuItem, id string) string {
	var pid string
	for _, it := range flat {
		if it.ID == id {
			pid = it.Parent()
			break
		}
	}
	if pid == "" {
		return ""
	}
	for _, it := range flat {
		if it.ID == pid {
			return pid
		}
	}
	return ""
}
