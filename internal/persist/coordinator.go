// Package persist owns the live menu tree and saves it in the background: drops are applied
// optimistically, saves are debounced, and a failed save rolls the whole batch back.
package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"menu-builder/internal/menutree"
	"menu-builder/internal/model"
	"menu-builder/internal/reorder"
)

// Saver writes a full structure for a menu. Both the store and the HTTP client implement it.
type Saver interface {
	SaveStructure(ctx context.Context, menu string, structure []model.StructureNode) error
}

type Opts struct {
	Menu     string
	Saver    Saver
	Debounce time.Duration
	// Timeout bounds a single save call.
	Timeout time.Duration
	Logger  *slog.Logger

	// OnSaved runs after a successful save with the tree that was written.
	OnSaved func(tree []model.MenuItem)
	// OnRollback runs after a failed save with the restored tree.
	OnRollback func(tree []model.MenuItem, err error)
}

type Coordinator struct {
	menu     string
	saver    Saver
	debounce time.Duration
	timeout  time.Duration
	log      *slog.Logger

	onSaved    func([]model.MenuItem)
	onRollback func([]model.MenuItem, error)

	mu   sync.Mutex
	idle *sync.Cond

	tree     []model.MenuItem
	snapshot []model.MenuItem
	timer    *time.Timer
	pending  bool
	running  bool
	closed   bool
}

func NewCoordinator(tree []model.MenuItem, opts Opts) *Coordinator {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = reorder.SaveDebounce
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	c := &Coordinator{
		menu:       opts.Menu,
		saver:      opts.Saver,
		debounce:   debounce,
		timeout:    timeout,
		log:        log.With("menu", opts.Menu),
		onSaved:    opts.OnSaved,
		onRollback: opts.OnRollback,
		tree:       menutree.Clone(tree),
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Tree returns a copy of the current (optimistic) tree.
func (c *Coordinator) Tree() []model.MenuItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return menutree.Clone(c.tree)
}

// Pending reports whether a save is scheduled or in flight.
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending || c.running
}

// Apply installs next as the current tree and (re)arms the debounced save. The tree before the
// first Apply of an unsaved batch is kept for rollback.
func (c *Coordinator) Apply(next []model.MenuItem) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.snapshot == nil {
		c.snapshot = menutree.Clone(c.tree)
	}
	c.tree = menutree.Clone(next)
	c.pending = true
	if c.timer == nil {
		c.timer = time.AfterFunc(c.debounce, c.onTimer)
		return
	}
	c.timer.Reset(c.debounce)
}

// Replace swaps in a freshly loaded tree and drops any unsaved batch.
func (c *Coordinator) Replace(tree []model.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tree = menutree.Clone(tree)
	c.snapshot = nil
	c.pending = false
	if c.timer != nil {
		c.timer.Stop()
	}
}

// Flush saves any pending batch now instead of waiting for the debounce.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	for c.running {
		c.idle.Wait()
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()
	return c.run(ctx)
}

// Close stops the debounce timer. A save already in flight still completes; later Applies are ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
}

func (c *Coordinator) onTimer() {
	c.mu.Lock()
	if c.running {
		// Another save is in flight; try again once it had time to finish.
		if c.timer != nil && !c.closed {
			c.timer.Reset(c.debounce)
		}
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	_ = c.run(ctx)
}

func (c *Coordinator) run(ctx context.Context) error {
	c.mu.Lock()
	if c.running || !c.pending {
		c.mu.Unlock()
		return nil
	}
	c.pending = false
	c.running = true
	sent := menutree.Clone(c.tree)
	c.mu.Unlock()

	err := c.saver.SaveStructure(ctx, c.menu, menutree.ToStructure(sent))

	c.mu.Lock()
	c.running = false
	var restored []model.MenuItem
	if err != nil {
		if c.snapshot != nil {
			c.tree = c.snapshot
		}
		c.snapshot = nil
		// Drops made while the failed save was in flight belong to the reverted batch.
		c.pending = false
		if c.timer != nil {
			c.timer.Stop()
		}
		restored = menutree.Clone(c.tree)
	} else if c.pending {
		// The tree moved on while saving: what was written is the new rollback point.
		c.snapshot = sent
		if c.timer != nil && !c.closed {
			c.timer.Reset(c.debounce)
		}
	} else {
		c.snapshot = nil
	}
	c.idle.Broadcast()
	c.mu.Unlock()

	if err != nil {
		c.log.Error("save structure failed, changes reverted", "err", err)
		if c.onRollback != nil {
			c.onRollback(restored, err)
		}
		return err
	}
	c.log.Debug("structure saved", "items", len(menutree.Flatten(sent, nil)))
	if c.onSaved != nil {
		c.onSaved(sent)
	}
	return nil
}
