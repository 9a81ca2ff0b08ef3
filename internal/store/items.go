package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"menu-builder/internal/menutree"
	"menu-builder/internal/model"
	"menu-builder/internal/reorder"
)

func (s *Store) ListMenus(ctx context.Context) ([]model.Menu, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug, name, created_at_unixms FROM menus ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Menu{}
	for rows.Next() {
		var m model.Menu
		var ms int64
		if err := rows.Scan(&m.Slug, &m.Name, &ms); err != nil {
			return nil, err
		}
		m.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetMenu(ctx context.Context, slug string) (model.Menu, error) {
	return getMenu(ctx, s.db, slug)
}

func getMenu(ctx context.Context, q dbtx, slug string) (model.Menu, error) {
	var m model.Menu
	var ms int64
	err := q.QueryRowContext(ctx, `SELECT slug, name, created_at_unixms FROM menus WHERE slug = ?`, strings.TrimSpace(slug)).
		Scan(&m.Slug, &m.Name, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Menu{}, NotFoundError{Kind: "menu", ID: slug}
	}
	if err != nil {
		return model.Menu{}, err
	}
	m.CreatedAt = time.UnixMilli(ms).UTC()
	return m, nil
}

func (s *Store) CreateMenu(ctx context.Context, slug, name string) (model.Menu, error) {
	slug, err := normalizeSlug(slug)
	if err != nil {
		return model.Menu{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = slug
	}
	m := model.Menu{Slug: slug, Name: name, CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getMenu(ctx, tx, slug); err == nil {
			return fmt.Errorf("menu %s: %w", slug, ErrExists)
		} else if !IsNotFound(err) {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO menus(slug, name, created_at_unixms) VALUES(?, ?, ?)`,
			m.Slug, m.Name, m.CreatedAt.UnixMilli()); err != nil {
			return err
		}
		return appendEvent(ctx, tx, "menu.create", slug, slug, m)
	})
	if err != nil {
		return model.Menu{}, err
	}
	return m, nil
}

// ListItems returns the menu's flat item list ordered by (parent, order). With withStatus, every
// item carries its resolved ReferenceStatus.
func (s *Store) ListItems(ctx context.Context, menu string, withStatus bool) ([]model.MenuItem, error) {
	if _, err := s.GetMenu(ctx, menu); err != nil {
		return nil, err
	}
	items, err := listItems(ctx, s.db, menu)
	if err != nil {
		return nil, err
	}
	if !withStatus {
		return items, nil
	}
	targets, err := s.referenceIndex(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		st := statusFor(items[i], targets)
		items[i].ReferenceStatus = &st
	}
	return items, nil
}

func listItems(ctx context.Context, q dbtx, menu string) ([]model.MenuItem, error) {
	rows, err := q.QueryContext(ctx, `SELECT menu, parent_id, ord, json FROM menu_items WHERE menu = ? ORDER BY parent_id, ord, id`, menu)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MenuItem{}
	for rows.Next() {
		r, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r.item)
	}
	return out, rows.Err()
}

type itemRow struct {
	menu string
	item model.MenuItem
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (itemRow, error) {
	var r itemRow
	var parent, js string
	var ord int
	if err := sc.Scan(&r.menu, &parent, &ord, &js); err != nil {
		return itemRow{}, err
	}
	if err := json.Unmarshal([]byte(js), &r.item); err != nil {
		return itemRow{}, err
	}
	// Columns are authoritative for placement.
	r.item.ParentID = model.StringPtr(parent)
	r.item.Order = ord
	return r, nil
}

func loadItem(ctx context.Context, q dbtx, id string) (itemRow, error) {
	row := q.QueryRowContext(ctx, `SELECT menu, parent_id, ord, json FROM menu_items WHERE id = ?`, strings.TrimSpace(id))
	r, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return itemRow{}, NotFoundError{Kind: "item", ID: id}
	}
	return r, err
}

// loadMenuItem loads id and checks it belongs to menu ("" accepts any menu).
func loadMenuItem(ctx context.Context, q dbtx, menu, id string) (itemRow, error) {
	r, err := loadItem(ctx, q, id)
	if err != nil {
		return itemRow{}, err
	}
	if menu = strings.TrimSpace(menu); menu != "" && r.menu != menu {
		return itemRow{}, NotFoundError{Kind: "item", ID: id}
	}
	return r, nil
}

// GetItem returns the item and the slug of the menu it belongs to.
func (s *Store) GetItem(ctx context.Context, id string) (model.MenuItem, string, error) {
	r, err := loadItem(ctx, s.db, id)
	if err != nil {
		return model.MenuItem{}, "", err
	}
	return r.item, r.menu, nil
}

func writeItem(ctx context.Context, x dbtx, menu string, it model.MenuItem) error {
	body := it
	body.Children = nil
	body.ReferenceStatus = nil
	body.ParentID = nil
	body.Order = 0
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	_, err = x.ExecContext(ctx, `INSERT OR REPLACE INTO menu_items(id, menu, parent_id, ord, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
		it.ID, menu, it.Parent(), it.Order, string(raw), time.Now().UTC().UnixMilli())
	return err
}

func validateItem(it *model.MenuItem) error {
	if it.Type == "" {
		it.Type = model.ItemTypeCustom
	}
	if !it.Type.Valid() {
		return ValidationError{Field: "type", Reason: fmt.Sprintf("unknown type %q", it.Type)}
	}
	if it.Target == "" {
		it.Target = model.TargetSelf
	}
	if !it.Target.Valid() {
		return ValidationError{Field: "target", Reason: fmt.Sprintf("unknown target %q", it.Target)}
	}
	it.Title = strings.TrimSpace(it.Title)
	it.URL = strings.TrimSpace(it.URL)
	it.ReferenceID = strings.TrimSpace(it.ReferenceID)
	if it.Type == model.ItemTypeCustom && it.URL == "" {
		return ValidationError{Field: "url", Reason: "required for custom items"}
	}
	if it.Type.IsReference() && it.ReferenceID == "" {
		return ValidationError{Field: "referenceId", Reason: fmt.Sprintf("required for %s items", it.Type)}
	}
	return nil
}

// CreateItem adds it as the last child of its parent (or last root). A blank id is generated.
func (s *Store) CreateItem(ctx context.Context, menu string, it model.MenuItem) (model.MenuItem, error) {
	if err := validateItem(&it); err != nil {
		return model.MenuItem{}, err
	}
	it.ID = strings.TrimSpace(it.ID)
	if it.ID == "" {
		it.ID = newItemID()
	}
	it.Children = nil
	it.ReferenceStatus = nil
	it.ParentID = model.StringPtr(it.Parent())

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getMenu(ctx, tx, menu); err != nil {
			return err
		}
		if _, err := loadItem(ctx, tx, it.ID); err == nil {
			return fmt.Errorf("item %s: %w", it.ID, ErrExists)
		} else if !IsNotFound(err) {
			return err
		}

		items, err := listItems(ctx, tx, menu)
		if err != nil {
			return err
		}
		if pid := it.Parent(); pid != "" {
			flat := menutree.Flatten(menutree.Build(items), nil)
			found := false
			for _, x := range flat {
				if x.ID == pid {
					found = true
					break
				}
			}
			if !found {
				return NotFoundError{Kind: "parent", ID: pid}
			}
			if menutree.Depth(pid, flat)+1 > reorder.MaxDepth-1 {
				return ValidationError{Field: "parentId", Reason: reorder.ErrMaxDepth.Error()}
			}
		}

		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM menu_items WHERE menu = ? AND parent_id = ?`, menu, it.Parent()).Scan(&n); err != nil {
			return err
		}
		it.Order = n
		if err := writeItem(ctx, tx, menu, it); err != nil {
			return err
		}
		return appendEvent(ctx, tx, "item.create", menu, it.ID, it)
	})
	if err != nil {
		return model.MenuItem{}, err
	}
	return it, nil
}

// ItemPatch holds field edits; nil fields are left alone. Structure is never changed here.
type ItemPatch struct {
	Title       *string         `json:"title,omitempty"`
	Type        *model.ItemType `json:"type,omitempty"`
	URL         *string         `json:"url,omitempty"`
	ReferenceID *string         `json:"referenceId,omitempty"`
	Target      *model.Target   `json:"target,omitempty"`
	IconClass   *string         `json:"iconClass,omitempty"`
	CSSClass    *string         `json:"cssClass,omitempty"`
}

func (p ItemPatch) apply(it *model.MenuItem) {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Type != nil {
		it.Type = *p.Type
	}
	if p.URL != nil {
		it.URL = *p.URL
	}
	if p.ReferenceID != nil {
		it.ReferenceID = *p.ReferenceID
	}
	if p.Target != nil {
		it.Target = *p.Target
	}
	if p.IconClass != nil {
		it.IconClass = strings.TrimSpace(*p.IconClass)
	}
	if p.CSSClass != nil {
		it.CSSClass = strings.TrimSpace(*p.CSSClass)
	}
}

func (s *Store) UpdateItem(ctx context.Context, menu, id string, patch ItemPatch) (model.MenuItem, error) {
	var out model.MenuItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		r, err := loadMenuItem(ctx, tx, menu, id)
		if err != nil {
			return err
		}
		it := r.item
		patch.apply(&it)
		if err := validateItem(&it); err != nil {
			return err
		}
		if err := writeItem(ctx, tx, r.menu, it); err != nil {
			return err
		}
		out = it
		return appendEvent(ctx, tx, "item.update", r.menu, it.ID, patch)
	})
	return out, err
}

// DeleteItem removes the item and its whole subtree, then closes the gap among its siblings.
// It returns the removed ids, the item itself first.
func (s *Store) DeleteItem(ctx context.Context, menu, id string) ([]string, error) {
	var removed []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		r, err := loadMenuItem(ctx, tx, menu, id)
		if err != nil {
			return err
		}
		items, err := listItems(ctx, tx, r.menu)
		if err != nil {
			return err
		}
		node := menutree.Find(menutree.Build(items), r.item.ID)
		if node == nil {
			return NotFoundError{Kind: "item", ID: id}
		}
		for _, x := range menutree.Flatten([]model.MenuItem{*node}, nil) {
			if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, x.ID); err != nil {
				return err
			}
			removed = append(removed, x.ID)
		}
		if err := renumberSiblings(ctx, tx, r.menu, r.item.Parent()); err != nil {
			return err
		}
		return appendEvent(ctx, tx, "item.delete", r.menu, r.item.ID, map[string]any{"removed": removed})
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// DuplicateItem copies a single item (not its children) and places the copy right after it.
func (s *Store) DuplicateItem(ctx context.Context, menu, id string) (model.MenuItem, error) {
	var out model.MenuItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		r, err := loadMenuItem(ctx, tx, menu, id)
		if err != nil {
			return err
		}
		cp := r.item
		cp.ID = newItemID()
		if cp.Title != "" {
			cp.Title += " (copy)"
		}
		cp.Order = r.item.Order + 1

		if _, err := tx.ExecContext(ctx, `UPDATE menu_items SET ord = ord + 1 WHERE menu = ? AND parent_id = ? AND ord > ?`,
			r.menu, r.item.Parent(), r.item.Order); err != nil {
			return err
		}
		if err := writeItem(ctx, tx, r.menu, cp); err != nil {
			return err
		}
		out = cp
		return appendEvent(ctx, tx, "item.duplicate", r.menu, cp.ID, map[string]string{"source": r.item.ID})
	})
	return out, err
}

// renumberSiblings rewrites ord for the children of parent to 0..n-1, keeping their current order.
func renumberSiblings(ctx context.Context, tx dbtx, menu, parent string) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM menu_items WHERE menu = ? AND parent_id = ? ORDER BY ord, id`, menu, parent)
	if err != nil {
		return err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	if err := rows.Close(); err != nil {
		return err
	}
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE menu_items SET ord = ? WHERE id = ?`, i, id); err != nil {
			return err
		}
	}
	return nil
}
