package publish

import (
	"bytes"
	"fmt"
	"strings"

	"menu-builder/internal/model"
)

// ResolveFunc looks up the link target of a reference item.
type ResolveFunc func(typ model.ItemType, referenceID string) (model.ReferenceStatus, error)

type RenderOptions struct {
	// Resolve is consulted for reference items without a ReferenceStatus. Nil leaves them unresolved.
	Resolve ResolveFunc
	// ShowIDs appends each item id to its line.
	ShowIDs bool
}

// RenderMenuMarkdown renders a nested menu tree as a Markdown link list.
func RenderMenuMarkdown(menu model.Menu, tree []model.MenuItem, opt RenderOptions) (string, error) {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := strings.TrimSpace(menu.Name)
	if title == "" {
		title = menu.Slug
	} else if menu.Slug != "" {
		title += " (" + menu.Slug + ")"
	}
	writeLn("# " + title)
	writeLn("")

	if len(tree) == 0 {
		writeLn("_No items._")
		return buf.String(), nil
	}
	for _, it := range tree {
		if err := renderItemLine(&buf, it, 0, opt); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func renderItemLine(buf *bytes.Buffer, it model.MenuItem, depth int, opt RenderOptions) error {
	status, err := itemStatus(it, opt.Resolve)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", it.ID, err)
	}
	if status != nil && it.ReferenceStatus == nil {
		it.ReferenceStatus = status
	}

	url := linkURL(it, status)
	var notes []string
	if it.Type.IsReference() {
		switch {
		case status == nil || !status.Exists:
			notes = append(notes, fmt.Sprintf("missing %s %s", it.Type, it.ReferenceID))
		case !status.Active:
			notes = append(notes, "inactive")
		}
	}
	if it.Target == model.TargetBlank {
		notes = append(notes, "new tab")
	}
	if opt.ShowIDs {
		notes = append(notes, it.ID)
	}

	line := fmt.Sprintf("%s- [%s](%s)", strings.Repeat("  ", depth), escapeLinkText(it.Label()), url)
	if len(notes) > 0 {
		line += " _(" + strings.Join(notes, ", ") + ")_"
	}
	buf.WriteString(line)
	buf.WriteString("\n")

	for _, ch := range it.Children {
		if err := renderItemLine(buf, ch, depth+1, opt); err != nil {
			return err
		}
	}
	return nil
}

func itemStatus(it model.MenuItem, resolve ResolveFunc) (*model.ReferenceStatus, error) {
	if it.ReferenceStatus != nil {
		return it.ReferenceStatus, nil
	}
	if !it.Type.IsReference() || resolve == nil {
		return nil, nil
	}
	st, err := resolve(it.Type, it.ReferenceID)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func linkURL(it model.MenuItem, status *model.ReferenceStatus) string {
	if it.Type.IsReference() {
		if status != nil && status.Exists && strings.TrimSpace(status.URL) != "" {
			return strings.TrimSpace(status.URL)
		}
		return "#"
	}
	if u := strings.TrimSpace(it.URL); u != "" {
		return u
	}
	return "#"
}

func escapeLinkText(s string) string {
	r := strings.NewReplacer(`[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
