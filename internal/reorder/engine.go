package reorder

import (
	"menu-builder/internal/menutree"
	"menu-builder/internal/model"
)

// Drop is a finalized drag: the ids involved plus the projection and displacement captured at
// release time.
type Drop struct {
	ActiveID   string
	OverID     string
	Projection Projection
	DeltaX     float64
	DeltaY     float64
}

// MoveKind names how an accepted drop placed the item.
type MoveKind string

const (
	MoveNone    MoveKind = "none"
	MoveRoot    MoveKind = "root"
	MoveChild   MoveKind = "child"
	MoveSibling MoveKind = "sibling"
	// MoveAncestor lands as a sibling of one of the hovered row's ancestors.
	MoveAncestor MoveKind = "ancestor"
	// MoveNestPrevious nests the item under its upper sibling (drop back onto itself, dragged right).
	MoveNestPrevious MoveKind = "nest-previous"
	// MovePromote returns a child to root level.
	MovePromote MoveKind = "promote"
)

// Move describes an accepted placement.
type Move struct {
	Kind     MoveKind `json:"kind"`
	ParentID string   `json:"parentId,omitempty"`
	AnchorID string   `json:"anchorId,omitempty"`
	After    bool     `json:"after"`
	Depth    int      `json:"depth"`
}

// Result is the outcome of Apply. Changed is false for no-op drops.
type Result struct {
	Tree    []model.MenuItem
	Move    Move
	Changed bool
}

// Engine validates and applies drops for one Config.
type Engine struct {
	cfg Config
}

// NewEngine returns an engine; zero Config fields fall back to the defaults.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.normalized()}
}

func (e *Engine) Config() Config { return e.cfg }

// Project is Project bound to the engine's config.
func (e *Engine) Project(tree []model.MenuItem, activeID, overID string, deltaX float64) (Projection, error) {
	return Project(tree, activeID, overID, deltaX, e.cfg)
}

// Apply validates a drop and returns the reordered tree. On rejection the returned error is a
// *RejectError and Result.Tree is the input tree. The input is never modified.
func (e *Engine) Apply(tree []model.MenuItem, d Drop) (Result, error) {
	unchanged := Result{Tree: tree, Move: Move{Kind: MoveNone}}

	flat := menutree.Flatten(tree, nil)
	activeIdx := indexOf(flat, d.ActiveID)
	overIdx := indexOf(flat, d.OverID)
	if activeIdx < 0 {
		return unchanged, reject(ErrNotFound, d.ActiveID, d.OverID)
	}
	if overIdx < 0 {
		return unchanged, reject(ErrInvalidTarget, d.ActiveID, d.OverID)
	}

	maxLevel := e.cfg.MaxDepth - 1
	subtreeDepth := menutree.SubtreeDepth(*menutree.Find(tree, d.ActiveID))
	activeDepth := menutree.Depth(d.ActiveID, flat)
	overDepth := menutree.Depth(d.OverID, flat)

	// A drop on self never rejects; nestUnderPrevious checks depth itself.
	if d.ActiveID == d.OverID {
		return e.nestUnderPrevious(tree, flat, activeIdx, activeDepth, subtreeDepth, d.DeltaX)
	}
	if d.Projection.Invalid {
		return unchanged, reject(ErrMaxDepth, d.ActiveID, d.OverID)
	}

	kind := MoveNone
	target := d.Projection.Depth
	currentParent := resolvedParent(flat, d.ActiveID)
	switch {
	case currentParent != "" && d.OverID == currentParent:
		// Dropping exactly on one's own parent cannot mean "become a grandchild of yourself".
		target = 0
		kind = MovePromote
	case overDepth == 0 && target == 1 && d.DeltaX < e.cfg.PromoteToRootThreshold &&
		menutree.IsAncestor(flat, d.OverID, d.ActiveID):
		// Small displacement over a root ancestor reads as "back to root", not a re-nest. This
		// covers grandchildren too: C under A > B dropped on A with dx < 15 goes to root rather
		// than becoming a child of A.
		target = 0
		kind = MovePromote
	}

	var parentID, anchorID string
	switch {
	case target > overDepth:
		if overDepth >= maxLevel {
			return unchanged, reject(ErrMaxDepth, d.ActiveID, d.OverID)
		}
		parentID = d.OverID
		kind = MoveChild
	case target == 0:
		anchorID, _ = menutree.AncestorAtDepth(flat, d.OverID, 0)
		if kind == MoveNone {
			kind = MoveRoot
		}
	case target == overDepth:
		anchorID = d.OverID
		parentID = resolvedParent(flat, d.OverID)
		kind = MoveSibling
	default:
		anchorID, _ = menutree.AncestorAtDepth(flat, d.OverID, target)
		parentID = resolvedParent(flat, anchorID)
		kind = MoveAncestor
	}

	if parentID != "" && menutree.IsAncestor(flat, d.ActiveID, parentID) {
		return unchanged, reject(ErrCycle, d.ActiveID, d.OverID)
	}
	if target+subtreeDepth > maxLevel {
		return unchanged, reject(ErrMaxDepth, d.ActiveID, d.OverID)
	}
	if anchorID == d.ActiveID {
		// Anchoring on itself leaves the item where it already is.
		return unchanged, nil
	}

	// Direction is judged on the original flat order, before removal.
	after := activeIdx < overIdx
	if kind == MoveChild {
		after = false
	}
	move := Move{Kind: kind, ParentID: parentID, AnchorID: anchorID, After: after, Depth: target}
	next, ok := relocate(tree, d.ActiveID, move)
	if !ok {
		return unchanged, reject(ErrInvalidTarget, d.ActiveID, d.OverID)
	}
	return Result{Tree: next, Move: move, Changed: true}, nil
}

// nestUnderPrevious handles a drop back onto the dragged row: dragging right turns the item
// into the last child of the sibling directly above it. Anything else is a no-op.
func (e *Engine) nestUnderPrevious(tree, flat []model.MenuItem, activeIdx, activeDepth, subtreeDepth int, deltaX float64) (Result, error) {
	unchanged := Result{Tree: tree, Move: Move{Kind: MoveNone}}
	if deltaX <= 0 {
		return unchanged, nil
	}

	upper := ""
	for i := activeIdx - 1; i >= 0; i-- {
		d := menutree.Depth(flat[i].ID, flat)
		if d < activeDepth {
			// Reached the parent: there is no sibling above.
			return unchanged, nil
		}
		if d == activeDepth {
			upper = flat[i].ID
			break
		}
	}
	if upper == "" || activeDepth+1+subtreeDepth > e.cfg.MaxDepth-1 {
		return unchanged, nil
	}

	move := Move{Kind: MoveNestPrevious, ParentID: upper, Depth: activeDepth + 1}
	next, ok := relocate(tree, flat[activeIdx].ID, move)
	if !ok {
		return unchanged, nil
	}
	return Result{Tree: next, Move: move, Changed: true}, nil
}

// relocate removes the active subtree, re-inserts it according to move and renumbers orders.
func relocate(tree []model.MenuItem, activeID string, move Move) ([]model.MenuItem, bool) {
	rest, node, ok := menutree.Remove(tree, activeID)
	if !ok {
		return nil, false
	}
	node.ParentID = model.StringPtr(move.ParentID)

	var out []model.MenuItem
	switch move.Kind {
	case MoveChild, MoveNestPrevious:
		out, ok = menutree.Insert(rest, move.ParentID, node, "", false)
	default:
		out, ok = menutree.Insert(rest, move.ParentID, node, move.AnchorID, move.After)
	}
	if !ok {
		return nil, false
	}
	return menutree.Renumber(out), true
}

func indexOf(flat []model.MenuItem, id string) int {
	if id == "" {
		return -1
	}
	for i := range flat {
		if flat[i].ID == id {
			return i
		}
	}
	return -1
}
