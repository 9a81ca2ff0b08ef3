// Package dnd runs a single drag session over the menu tree: live depth projection while the
// pointer moves, delayed auto-expand of collapsed targets, edge auto-scroll, and the final drop
// through the reorder engine. Keyboard reordering drives the same session with synthetic offsets.
package dnd

import (
	"errors"
	"log/slog"
	"sync"

	"menu-builder/internal/menutree"
	"menu-builder/internal/model"
	"menu-builder/internal/reorder"
)

type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// TreeState is the single-owner tree the controller reads and writes.
type TreeState interface {
	Tree() []model.MenuItem
	Apply(next []model.MenuItem)
}

// Scroller moves the viewport. ScrollBy returns false once the scroll extreme is reached.
type Scroller interface {
	ScrollBy(dy float64) bool
}

type ToastKind string

const (
	ToastInfo    ToastKind = "info"
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

type Toast struct {
	Kind    ToastKind
	Message string
}

type Notifier interface {
	Notify(Toast)
}

// Session is the transient state of the drag in progress.
type Session struct {
	ActiveID string
	OverID   string
	// Height is the rendered height of the dragged row, used to size the placeholder.
	Height     int
	DeltaX     float64
	DeltaY     float64
	Projection *reorder.Projection
	Keyboard   bool
}

// Pointer is one drag-over sample.
type Pointer struct {
	OverID         string
	DeltaX         float64
	DeltaY         float64
	Y              float64
	ViewportHeight float64
}

type Options struct {
	Config    reorder.Config
	Scheduler Scheduler
	Scroller  Scroller
	Notifier  Notifier
	Logger    *slog.Logger
	// OnChange runs (outside the controller lock) after a timer changed visible state.
	OnChange func()
}

var ErrNotDragging = errors.New("no drag in progress")

type Controller struct {
	tree     TreeState
	engine   *reorder.Engine
	sched    Scheduler
	scroller Scroller
	notifier Notifier
	log      *slog.Logger
	onChange func()

	mu        sync.Mutex
	state     State
	session   Session
	collapsed map[string]bool
	closed    bool

	expandTimer  Timer
	expandTarget string

	scrollTimer Timer
	scrollDir   int
	// scrollGen invalidates ticks from a loop that was already stopped.
	scrollGen int
}

func NewController(tree TreeState, opts Options) *Controller {
	sched := opts.Scheduler
	if sched == nil {
		sched = SystemScheduler{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		tree:      tree,
		engine:    reorder.NewEngine(opts.Config),
		sched:     sched,
		scroller:  opts.Scroller,
		notifier:  opts.Notifier,
		log:       log,
		onChange:  opts.OnChange,
		collapsed: map[string]bool{},
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the current drag session (zero when idle).
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	if s.Projection != nil {
		p := *s.Projection
		s.Projection = &p
	}
	return s
}

func (c *Controller) IsCollapsed(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collapsed[id]
}

func (c *Controller) ToggleCollapsed(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.collapsed[id] {
		delete(c.collapsed, id)
		return
	}
	c.collapsed[id] = true
}

// Rows lists visible rows. While dragging, the active item's descendants are hidden since they
// travel with it.
func (c *Controller) Rows() []menutree.Row {
	c.mu.Lock()
	collapsed := make(map[string]bool, len(c.collapsed)+1)
	for id := range c.collapsed {
		collapsed[id] = true
	}
	if c.state == Dragging {
		collapsed[c.session.ActiveID] = true
	}
	c.mu.Unlock()
	return menutree.Visible(c.tree.Tree(), collapsed)
}

// DragStart begins a session for id. height is the rendered row height.
func (c *Controller) DragStart(id string, height int) error {
	return c.start(id, height, false)
}

// KeyboardStart picks up id for keyboard reordering; the row starts over itself.
func (c *Controller) KeyboardStart(id string) error {
	return c.start(id, 1, true)
}

func (c *Controller) start(id string, height int, keyboard bool) error {
	if menutree.Find(c.tree.Tree(), id) == nil {
		return reorder.ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrNotDragging
	}
	c.clearLocked()
	c.state = Dragging
	c.session = Session{ActiveID: id, Height: height, Keyboard: keyboard}
	if keyboard {
		c.session.OverID = id
		c.projectLocked(c.tree.Tree())
	}
	return nil
}

// DragMove records a drag-over sample and returns the updated projection (nil when the pointer
// is not over a row).
func (c *Controller) DragMove(p Pointer) (*reorder.Projection, error) {
	tree := c.tree.Tree()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Dragging {
		return nil, ErrNotDragging
	}
	c.session.OverID = p.OverID
	c.session.DeltaX = p.DeltaX
	c.session.DeltaY = p.DeltaY
	c.projectLocked(tree)
	c.autoScrollLocked(p.Y, p.ViewportHeight)
	return c.projectionLocked(), nil
}

// KeyStep nudges a keyboard drag. dx moves one indentation level per unit, dy moves the hovered
// row by that many visible rows.
func (c *Controller) KeyStep(dx, dy int) (*reorder.Projection, error) {
	rows := c.Rows()
	tree := c.tree.Tree()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Dragging {
		return nil, ErrNotDragging
	}
	cfg := c.engine.Config()
	c.session.DeltaX += float64(dx) * cfg.IndentationWidth
	if dy != 0 && len(rows) > 0 {
		at := 0
		for i, r := range rows {
			if r.Item.ID == c.session.OverID {
				at = i
				break
			}
		}
		at += dy
		if at < 0 {
			at = 0
		}
		if at >= len(rows) {
			at = len(rows) - 1
		}
		c.session.OverID = rows[at].Item.ID
		c.session.DeltaY += float64(dy * c.session.Height)
	}
	c.projectLocked(tree)
	return c.projectionLocked(), nil
}

// Drop finishes the session. The captured projection and offsets are applied through the reorder
// engine; transient state is cleared whatever the outcome. Rejections are reported to the notifier
// and returned.
func (c *Controller) Drop() (reorder.Result, error) {
	tree := c.tree.Tree()

	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return reorder.Result{Tree: tree}, ErrNotDragging
	}
	s := c.session
	c.clearLocked()
	c.mu.Unlock()

	if s.OverID == "" || s.Projection == nil {
		// Released outside any row.
		return reorder.Result{Tree: tree}, nil
	}

	res, err := c.engine.Apply(tree, reorder.Drop{
		ActiveID:   s.ActiveID,
		OverID:     s.OverID,
		Projection: *s.Projection,
		DeltaX:     s.DeltaX,
		DeltaY:     s.DeltaY,
	})
	if err != nil {
		c.log.Debug("drop rejected", "active", s.ActiveID, "over", s.OverID, "err", err)
		c.notify(Toast{Kind: ToastError, Message: rejectMessage(err)})
		return res, err
	}
	if res.Changed {
		c.tree.Apply(res.Tree)
	}
	return res, nil
}

// Cancel ends the session without touching the tree.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

// Close cancels any session and stops every timer. The controller ignores later drags.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	c.closed = true
}

func (c *Controller) clearLocked() {
	c.state = Idle
	c.session = Session{}
	c.stopExpandLocked()
	c.stopScrollLocked()
}

func (c *Controller) projectionLocked() *reorder.Projection {
	if c.session.Projection == nil {
		return nil
	}
	p := *c.session.Projection
	return &p
}

func (c *Controller) projectLocked(tree []model.MenuItem) {
	s := &c.session
	if s.OverID == "" {
		s.Projection = nil
		c.stopExpandLocked()
		return
	}
	p, err := c.engine.Project(tree, s.ActiveID, s.OverID, s.DeltaX)
	if err != nil {
		// The hovered row disappeared (refresh mid-drag).
		s.Projection = nil
		c.stopExpandLocked()
		return
	}
	s.Projection = &p
	c.armExpandLocked(p)
}

// armExpandLocked schedules expansion of a collapsed row the projection nests under. Moving to a
// different target cancels the pending expansion.
func (c *Controller) armExpandLocked(p reorder.Projection) {
	target := ""
	if p.NestsUnder() && c.collapsed[p.ParentID] {
		target = p.ParentID
	}
	if target == c.expandTarget {
		return
	}
	c.stopExpandLocked()
	if target == "" {
		return
	}
	c.expandTarget = target
	c.expandTimer = c.sched.AfterFunc(reorder.CollapsedExpandDelay, func() { c.fireExpand(target) })
}

func (c *Controller) stopExpandLocked() {
	if c.expandTimer != nil {
		c.expandTimer.Stop()
	}
	c.expandTimer = nil
	c.expandTarget = ""
}

func (c *Controller) fireExpand(target string) {
	c.mu.Lock()
	if c.state != Dragging || c.expandTarget != target {
		c.mu.Unlock()
		return
	}
	delete(c.collapsed, target)
	c.expandTimer = nil
	c.expandTarget = ""
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) autoScrollLocked(y, height float64) {
	dir := 0
	if c.scroller != nil && height > 0 {
		switch {
		case y < reorder.AutoScrollThreshold:
			dir = -1
		case y > height-reorder.AutoScrollThreshold:
			dir = 1
		}
	}
	if dir == 0 {
		c.stopScrollLocked()
		return
	}
	c.scrollDir = dir
	if c.scrollTimer != nil {
		return
	}
	c.scrollGen++
	gen := c.scrollGen
	c.scrollTimer = c.sched.Tick(reorder.AutoScrollInterval, func() { c.scrollTick(gen) })
}

func (c *Controller) stopScrollLocked() {
	if c.scrollTimer != nil {
		c.scrollTimer.Stop()
	}
	c.scrollTimer = nil
	c.scrollDir = 0
	c.scrollGen++
}

func (c *Controller) scrollTick(gen int) {
	c.mu.Lock()
	if gen != c.scrollGen || c.state != Dragging || c.scrollDir == 0 {
		c.mu.Unlock()
		return
	}
	if !c.scroller.ScrollBy(float64(c.scrollDir * reorder.AutoScrollSpeed)) {
		c.stopScrollLocked()
	}
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) notify(t Toast) {
	if c.notifier != nil {
		c.notifier.Notify(t)
	}
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

func rejectMessage(err error) string {
	switch {
	case errors.Is(err, reorder.ErrMaxDepth):
		return "Cannot move here: menu depth limit reached"
	case errors.Is(err, reorder.ErrCycle):
		return "Cannot move an item into itself or its own children"
	case errors.Is(err, reorder.ErrNotFound), errors.Is(err, reorder.ErrInvalidTarget):
		return "Cannot move here: target no longer exists"
	default:
		return err.Error()
	}
}
