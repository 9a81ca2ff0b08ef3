package tui

import (
	"sync"

	"menu-builder/internal/reorder"
)

// Terminal cells stand in for pixels: one row is rowPx tall and one indentation level (indentCols
// columns) spans reorder.IndentationWidth.
const (
	rowPx      = 20
	indentCols = 2
	colPx      = reorder.IndentationWidth / indentCols
)

// viewport is the scroll state of the row list. The drag controller scrolls it from its ticker
// goroutine, so it carries its own lock.
type viewport struct {
	mu       sync.Mutex
	offsetPx float64
	total    int
	visible  int
}

func (v *viewport) maxPxLocked() float64 {
	if v.total <= v.visible {
		return 0
	}
	return float64(v.total-v.visible) * rowPx
}

// ScrollBy moves the list by dy pixels and reports false once the top or bottom is reached.
func (v *viewport) ScrollBy(dy float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	limit := v.maxPxLocked()
	next := v.offsetPx + dy
	if next < 0 {
		next = 0
	}
	if next > limit {
		next = limit
	}
	moved := next != v.offsetPx
	v.offsetPx = next
	return moved && next > 0 && next < limit
}

func (v *viewport) resize(total, visible int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.total, v.visible = total, visible
	if limit := v.maxPxLocked(); v.offsetPx > limit {
		v.offsetPx = limit
	}
}

func (v *viewport) top() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return int(v.offsetPx / rowPx)
}

// ensureVisible scrolls the minimum needed to show row i.
func (v *viewport) ensureVisible(i int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	top := int(v.offsetPx / rowPx)
	switch {
	case i < top:
		top = i
	case v.visible > 0 && i >= top+v.visible:
		top = i - v.visible + 1
	default:
		return
	}
	if top < 0 {
		top = 0
	}
	v.offsetPx = float64(top) * rowPx
	if limit := v.maxPxLocked(); v.offsetPx > limit {
		v.offsetPx = limit
	}
}
