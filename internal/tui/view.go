package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"menu-builder/internal/dnd"
	"menu-builder/internal/menutree"
	"menu-builder/internal/model"
	"menu-builder/internal/publish"
)

const (
	// listTop is the screen row of the first list line (title + blank line above).
	listTop = 2
	// footerLines covers the toast line and the help line.
	footerLines       = 2
	defaultListHeight = 20
)

// line is one rendered list entry. While dragging, the active item is lifted out of the list and
// shown as a placeholder where it would land.
type line struct {
	row         menutree.Row
	placeholder bool
}

func (m *Model) lines() []line {
	rows := m.ctrl.Rows()
	s := m.ctrl.Session()

	activeIdx := -1
	if s.ActiveID != "" {
		for i, r := range rows {
			if r.Item.ID == s.ActiveID {
				activeIdx = i
				break
			}
		}
	}
	if activeIdx < 0 {
		out := make([]line, len(rows))
		for i, r := range rows {
			out[i] = line{row: r}
		}
		return out
	}

	ph := line{row: rows[activeIdx], placeholder: true}
	if s.Projection != nil {
		ph.row.Depth = s.Projection.Depth
	}

	overIdx := -1
	for i, r := range rows {
		if r.Item.ID == s.OverID {
			overIdx = i
			break
		}
	}

	out := make([]line, 0, len(rows))
	for i, r := range rows {
		switch {
		case i == activeIdx:
			if overIdx < 0 || overIdx == activeIdx {
				out = append(out, ph)
			}
		case i == overIdx && activeIdx < overIdx:
			out = append(out, line{row: r}, ph)
		case i == overIdx:
			out = append(out, ph, line{row: r})
		default:
			out = append(out, line{row: r})
		}
	}
	return out
}

func (m *Model) lineAt(y int) (line, bool) {
	i := y - listTop
	if i < 0 || i >= m.listHeight() {
		return line{}, false
	}
	i += m.view.top()
	lines := m.lines()
	if i >= len(lines) {
		return line{}, false
	}
	return lines[i], true
}

func (m *Model) listHeight() int {
	if m.height <= 0 {
		return defaultListHeight
	}
	h := m.height - listTop - footerLines
	if m.help.ShowAll {
		h -= 3
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) View() string {
	var b strings.Builder

	title := strings.TrimSpace(m.menu.Name)
	if title == "" {
		title = m.menu.Slug
	}
	b.WriteString(styleTitle.Render(title))
	if status := m.statusText(); status != "" {
		b.WriteString("  " + styleMuted.Render(status))
	}
	b.WriteString("\n\n")

	listW := m.width
	if m.showPreview && m.width > 0 {
		listW = m.width / 2
	}
	body := m.renderList(listW)
	if m.showPreview {
		pw := m.width - listW - 2
		if m.width <= 0 {
			pw = 60
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(listW).Render(body),
			stylePreview.Render(m.preview(pw)))
	}
	b.WriteString(body)
	b.WriteString("\n")

	if m.toast != nil {
		b.WriteString(toastStyle(string(m.toast.Kind)).Render(m.toast.Message))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) statusText() string {
	var parts []string
	if s := m.ctrl.Session(); s.ActiveID != "" {
		parts = append(parts, "moving")
	}
	if m.coord.Pending() {
		parts = append(parts, "saving"+glyphEllipsis())
	}
	return strings.Join(parts, " · ")
}

func (m *Model) renderList(width int) string {
	if !m.loaded {
		return styleMuted.Render("Loading" + glyphEllipsis())
	}
	lines := m.lines()
	if len(lines) == 0 {
		return styleMuted.Render("No items yet. Add some with `menubuilder items add " + m.menu.Slug + "`.")
	}

	s := m.ctrl.Session()
	top := m.view.top()
	h := m.listHeight()
	out := make([]string, 0, h)
	for i := top; i < len(lines) && i < top+h; i++ {
		out = append(out, m.renderLine(lines[i], s, width))
	}
	return strings.Join(out, "\n")
}

func (m *Model) renderLine(l line, s dnd.Session, width int) string {
	it := l.row.Item
	indent := strings.Repeat(" ", l.row.Depth*indentCols)

	twisty := "  "
	if l.row.HasChildren {
		if l.row.Collapsed || l.placeholder {
			twisty = glyphTwistyCollapsed() + " "
		} else {
			twisty = glyphTwistyExpanded() + " "
		}
	}
	if l.placeholder {
		twisty = glyphArrow() + " "
	}

	text := indent + twisty + it.Label() + itemMeta(it)
	if width > 0 {
		text = xansi.Truncate(text, width-1, glyphEllipsis())
	}

	switch {
	case l.placeholder && s.Projection != nil && s.Projection.Invalid:
		return styleInvalid.Render(text)
	case l.placeholder:
		return stylePlaceholder.Render(text)
	case it.ID == m.cursorID && s.ActiveID == "":
		return styleSelected.Render(text)
	default:
		return text
	}
}

func itemMeta(it model.MenuItem) string {
	var parts []string
	if it.Type.IsReference() {
		parts = append(parts, string(it.Type))
		if st := it.ReferenceStatus; st != nil {
			switch {
			case !st.Exists:
				parts = append(parts, styleWarn.Render("missing"))
			case !st.Active:
				parts = append(parts, styleWarn.Render("inactive"))
			}
		}
	}
	if it.Target == model.TargetBlank {
		parts = append(parts, "new tab")
	}
	if len(parts) == 0 {
		return ""
	}
	return "  " + styleMuted.Render("["+strings.Join(parts, ", ")+"]")
}

// preview renders the current (unsaved included) tree as Markdown. The last render is memoized
// since View runs on every message.
func (m *Model) preview(width int) string {
	md, err := publish.RenderMenuMarkdown(m.menu, m.coord.Tree(), publish.RenderOptions{})
	if err != nil {
		return styleWarn.Render(err.Error())
	}
	key := strconv.Itoa(width) + "\x00" + md
	if key == m.previewKey {
		return m.previewOut
	}
	m.previewKey = key
	m.previewOut = renderMarkdown(md, width)
	return m.previewOut
}
