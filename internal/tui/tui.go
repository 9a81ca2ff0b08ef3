// Package tui is the interactive menu structure panel. Rows can be reordered with the keyboard
// (space to pick up, arrows to move and indent) or dragged with the mouse; every drop is applied
// optimistically and saved in the background.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"menu-builder/internal/dnd"
	"menu-builder/internal/model"
	"menu-builder/internal/persist"
)

// Backend is where the panel loads items from and saves to: the local store or the API client.
type Backend interface {
	persist.Saver
	ListItems(ctx context.Context, menu string, withStatus bool) ([]model.MenuItem, error)
	DeleteItem(ctx context.Context, menu, id string) ([]string, error)
	DuplicateItem(ctx context.Context, menu, id string) (model.MenuItem, error)
}

type Options struct {
	Menu    model.Menu
	Backend Backend
	Logger  *slog.Logger
	// Debounce overrides the save delay; zero uses the default.
	Debounce time.Duration
	// Scheduler drives auto-expand and auto-scroll timers; nil uses the real clock.
	Scheduler dnd.Scheduler
}

// exitSaveTimeout bounds the final save when the panel closes.
const exitSaveTimeout = 10 * time.Second

func Run(ctx context.Context, opt Options) error {
	lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
	applyGlyphPreference()

	m := newModel(ctx, opt)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	m.box.setWake(func() { go p.Send(wakeMsg{}) })

	_, runErr := p.Run()

	m.ctrl.Close()
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), exitSaveTimeout)
	defer cancel()
	saveErr := m.coord.Flush(saveCtx)
	m.coord.Close()

	if runErr != nil {
		return runErr
	}
	if saveErr != nil {
		return fmt.Errorf("save on exit failed, changes reverted: %w", saveErr)
	}
	return nil
}
