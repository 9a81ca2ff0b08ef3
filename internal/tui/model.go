package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"menu-builder/internal/dnd"
	"menu-builder/internal/menutree"
	"menu-builder/internal/model"
	"menu-builder/internal/persist"
)

const (
	toastTTL      = 3 * time.Second
	errorToastTTL = 6 * time.Second
)

type (
	// loadedMsg carries a fresh flat list from the backend. note, when set, becomes an info toast.
	loadedMsg struct {
		items []model.MenuItem
		err   error
		note  string
	}
	// wakeMsg makes the program re-render after background work (saves, timers).
	wakeMsg         struct{}
	toastExpiredMsg struct{ seq int }
)

// inbox collects toasts from the drag controller and the save coordinator. Both may report from
// their own goroutines; the model drains it on every update.
type inbox struct {
	mu     sync.Mutex
	toasts []dnd.Toast
	wake   func()
}

func (b *inbox) Notify(t dnd.Toast) {
	b.mu.Lock()
	b.toasts = append(b.toasts, t)
	wake := b.wake
	b.mu.Unlock()
	if wake != nil {
		wake()
	}
}

func (b *inbox) poke() {
	b.mu.Lock()
	wake := b.wake
	b.mu.Unlock()
	if wake != nil {
		wake()
	}
}

func (b *inbox) setWake(f func()) {
	b.mu.Lock()
	b.wake = f
	b.mu.Unlock()
}

func (b *inbox) drain() []dnd.Toast {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.toasts
	b.toasts = nil
	return out
}

type mouseDrag struct {
	x, y int
}

type Model struct {
	ctx     context.Context
	menu    model.Menu
	backend Backend
	log     *slog.Logger

	coord *persist.Coordinator
	ctrl  *dnd.Controller
	box   *inbox
	view  *viewport

	keys keyMap
	help help.Model

	width, height int
	loaded        bool
	cursorID      string
	showPreview   bool
	confirmDelete string
	mouse         *mouseDrag

	toast    *dnd.Toast
	toastSeq int

	previewKey string
	previewOut string
}

func newModel(ctx context.Context, opt Options) *Model {
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	box := &inbox{}
	vp := &viewport{}

	coord := persist.NewCoordinator(nil, persist.Opts{
		Menu:     opt.Menu.Slug,
		Saver:    opt.Backend,
		Debounce: opt.Debounce,
		Logger:   log,
		OnSaved: func([]model.MenuItem) {
			box.Notify(dnd.Toast{Kind: dnd.ToastSuccess, Message: "Menu saved"})
		},
		OnRollback: func(_ []model.MenuItem, err error) {
			box.Notify(dnd.Toast{Kind: dnd.ToastError, Message: "Save failed, changes reverted: " + err.Error()})
		},
	})
	ctrl := dnd.NewController(coord, dnd.Options{
		Scheduler: opt.Scheduler,
		Scroller:  vp,
		Notifier:  box,
		Logger:    log,
		OnChange:  box.poke,
	})

	return &Model{
		ctx:     ctx,
		menu:    opt.Menu,
		backend: opt.Backend,
		log:     log,
		coord:   coord,
		ctrl:    ctrl,
		box:     box,
		view:    vp,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

func (m *Model) Init() tea.Cmd {
	return m.reloadCmd("")
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
	case loadedMsg:
		if msg.err != nil {
			m.log.Warn("load menu failed", "menu", m.menu.Slug, "err", msg.err)
			cmds = append(cmds, m.setToast(dnd.Toast{Kind: dnd.ToastError, Message: msg.err.Error()}))
			break
		}
		m.ctrl.Cancel()
		m.coord.Replace(menutree.Build(msg.items))
		m.loaded = true
		if msg.note != "" {
			cmds = append(cmds, m.setToast(dnd.Toast{Kind: dnd.ToastInfo, Message: msg.note}))
		}
	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
	case wakeMsg:
	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))
	case tea.MouseMsg:
		m.handleMouse(msg)
	}

	if cmd := m.drainInbox(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	m.syncCursor()
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.ctrl.State() == dnd.Dragging {
		return m.handleDragKey(msg)
	}

	confirm := m.confirmDelete
	m.confirmDelete = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Left):
		if r, ok := m.cursorRow(); ok && r.HasChildren && !r.Collapsed {
			m.ctrl.ToggleCollapsed(r.Item.ID)
		}
	case key.Matches(msg, m.keys.Right):
		if r, ok := m.cursorRow(); ok && r.Collapsed {
			m.ctrl.ToggleCollapsed(r.Item.ID)
		}
	case key.Matches(msg, m.keys.Toggle):
		if r, ok := m.cursorRow(); ok && r.HasChildren {
			m.ctrl.ToggleCollapsed(r.Item.ID)
		}
	case key.Matches(msg, m.keys.Grab):
		if m.cursorID == "" {
			return nil
		}
		if err := m.ctrl.KeyboardStart(m.cursorID); err != nil {
			return m.setToast(dnd.Toast{Kind: dnd.ToastError, Message: err.Error()})
		}
	case key.Matches(msg, m.keys.Preview):
		m.showPreview = !m.showPreview
	case key.Matches(msg, m.keys.Refresh):
		return m.reloadCmd("Reloaded")
	case key.Matches(msg, m.keys.Duplicate):
		r, ok := m.cursorRow()
		if !ok {
			return nil
		}
		id := r.Item.ID
		return m.mutateCmd("Duplicated "+r.Item.Label(), func(ctx context.Context) error {
			_, err := m.backend.DuplicateItem(ctx, m.menu.Slug, id)
			return err
		})
	case key.Matches(msg, m.keys.Delete):
		r, ok := m.cursorRow()
		if !ok {
			return nil
		}
		id := r.Item.ID
		if confirm != id {
			m.confirmDelete = id
			return m.setToast(dnd.Toast{Kind: dnd.ToastInfo, Message: fmt.Sprintf("Press x again to delete %q and its children", r.Item.Label())})
		}
		return m.mutateCmd("Deleted "+r.Item.Label(), func(ctx context.Context) error {
			_, err := m.backend.DeleteItem(ctx, m.menu.Slug, id)
			return err
		})
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *Model) handleDragKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Grab):
		m.drop()
	case key.Matches(msg, m.keys.Cancel):
		m.ctrl.Cancel()
		m.mouse = nil
		return m.setToast(dnd.Toast{Kind: dnd.ToastInfo, Message: "Move cancelled"})
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Cancel()
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.step(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.step(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.step(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.step(1, 0)
	}
	return nil
}

func (m *Model) step(dx, dy int) {
	if _, err := m.ctrl.KeyStep(dx, dy); err != nil {
		return
	}
	m.followDrag()
}

// followDrag keeps the cursor and viewport on the placeholder.
func (m *Model) followDrag() {
	lines := m.lines()
	for i, l := range lines {
		if l.placeholder {
			m.view.ensureVisible(i)
			return
		}
	}
}

func (m *Model) drop() {
	active := m.ctrl.Session().ActiveID
	m.mouse = nil
	if _, err := m.ctrl.Drop(); err != nil && !errors.Is(err, dnd.ErrNotDragging) {
		// Rejections arrive as toasts through the inbox.
		m.log.Debug("drop rejected", "item", active, "err", err)
	}
	if active != "" {
		m.cursorID = active
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.view.ScrollBy(-3 * rowPx)
			return
		case tea.MouseButtonWheelDown:
			m.view.ScrollBy(3 * rowPx)
			return
		case tea.MouseButtonLeft:
		default:
			return
		}
		l, ok := m.lineAt(msg.Y)
		if !ok || l.placeholder {
			return
		}
		m.cursorID = l.row.Item.ID
		if m.ctrl.State() == dnd.Dragging {
			return
		}
		if err := m.ctrl.DragStart(l.row.Item.ID, rowPx); err == nil {
			m.mouse = &mouseDrag{x: msg.X, y: msg.Y}
		}
	case tea.MouseActionMotion:
		if m.mouse == nil || m.ctrl.State() != dnd.Dragging {
			return
		}
		over := ""
		if l, ok := m.lineAt(msg.Y); ok {
			over = l.row.Item.ID
			if l.placeholder {
				over = m.ctrl.Session().OverID
			}
		}
		_, _ = m.ctrl.DragMove(dnd.Pointer{
			OverID:         over,
			DeltaX:         float64(msg.X-m.mouse.x) * colPx,
			DeltaY:         float64(msg.Y-m.mouse.y) * rowPx,
			Y:              float64(msg.Y-listTop) * rowPx,
			ViewportHeight: float64(m.listHeight()) * rowPx,
		})
	case tea.MouseActionRelease:
		if m.mouse == nil {
			return
		}
		if m.ctrl.State() == dnd.Dragging {
			m.drop()
		}
		m.mouse = nil
	}
}

func (m *Model) moveCursor(d int) {
	lines := m.lines()
	if len(lines) == 0 {
		return
	}
	i := m.cursorIndex(lines) + d
	if i < 0 {
		i = 0
	}
	if i >= len(lines) {
		i = len(lines) - 1
	}
	m.cursorID = lines[i].row.Item.ID
	m.view.ensureVisible(i)
}

func (m *Model) cursorIndex(lines []line) int {
	for i, l := range lines {
		if l.row.Item.ID == m.cursorID {
			return i
		}
	}
	return 0
}

func (m *Model) cursorRow() (menutree.Row, bool) {
	for _, l := range m.lines() {
		if l.row.Item.ID == m.cursorID {
			return l.row, true
		}
	}
	return menutree.Row{}, false
}

// syncCursor keeps the cursor on an existing row and sizes the viewport to the current list.
func (m *Model) syncCursor() {
	lines := m.lines()
	m.view.resize(len(lines), m.listHeight())
	if len(lines) == 0 {
		m.cursorID = ""
		return
	}
	if s := m.ctrl.Session(); s.ActiveID != "" && s.Keyboard && s.OverID != "" {
		m.cursorID = s.OverID
		return
	}
	for _, l := range lines {
		if l.row.Item.ID == m.cursorID {
			return
		}
	}
	m.cursorID = lines[0].row.Item.ID
}

func (m *Model) setToast(t dnd.Toast) tea.Cmd {
	m.toast = &t
	m.toastSeq++
	seq := m.toastSeq
	ttl := toastTTL
	if t.Kind == dnd.ToastError {
		ttl = errorToastTTL
	}
	return tea.Tick(ttl, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}

func (m *Model) drainInbox() tea.Cmd {
	toasts := m.box.drain()
	if len(toasts) == 0 {
		return nil
	}
	return m.setToast(toasts[len(toasts)-1])
}

func (m *Model) reloadCmd(note string) tea.Cmd {
	return m.mutateCmd(note, nil)
}

// mutateCmd saves any pending drops, runs fn (if any) against the backend, then reloads the menu.
func (m *Model) mutateCmd(note string, fn func(ctx context.Context) error) tea.Cmd {
	ctx, coord, backend, menu := m.ctx, m.coord, m.backend, m.menu.Slug
	return func() tea.Msg {
		// A failed flush reverts and reports through OnRollback; the reload below shows the stored state.
		_ = coord.Flush(ctx)
		if fn != nil {
			if err := fn(ctx); err != nil {
				return loadedMsg{err: err}
			}
		}
		items, err := backend.ListItems(ctx, menu, true)
		if err != nil {
			return loadedMsg{err: fmt.Errorf("load %s: %w", menu, err)}
		}
		return loadedMsg{items: items, note: note}
	}
}
