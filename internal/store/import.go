package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"menu-builder/internal/model"
	"menu-builder/internal/reorder"
)

// MenuDocument is the nested import format (YAML or JSON) for seeding a menu.
type MenuDocument struct {
	Slug       string            `json:"slug" yaml:"slug"`
	Name       string            `json:"name" yaml:"name"`
	Items      []model.MenuItem  `json:"items" yaml:"items"`
	References []ReferenceTarget `json:"references,omitempty" yaml:"references,omitempty"`
}

// ParseMenuDocument decodes a YAML document. JSON input works too since YAML is a superset.
func ParseMenuDocument(b []byte) (MenuDocument, error) {
	var doc MenuDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return MenuDocument{}, fmt.Errorf("parse menu document: %w", err)
	}
	return doc, nil
}

// ImportMenu replaces the menu's items with the nested doc.Items, creating the menu when missing.
// Blank item ids are generated. References are upserted first. It returns the number of items written.
func (s *Store) ImportMenu(ctx context.Context, doc MenuDocument) (int, error) {
	slug, err := normalizeSlug(doc.Slug)
	if err != nil {
		return 0, err
	}
	for _, r := range doc.References {
		if _, err := s.UpsertReference(ctx, r); err != nil {
			return 0, fmt.Errorf("reference %s/%s: %w", r.Type, r.ID, err)
		}
	}

	var flat []model.MenuItem
	seen := map[string]bool{}
	var walk func(nodes []model.MenuItem, parent string, depth int) error
	walk = func(nodes []model.MenuItem, parent string, depth int) error {
		for i, n := range nodes {
			if depth > reorder.MaxDepth-1 {
				return ValidationError{Field: "items", Reason: fmt.Sprintf("%s: %s", n.Label(), reorder.ErrMaxDepth)}
			}
			it := n
			it.Children = nil
			it.ReferenceStatus = nil
			if err := validateItem(&it); err != nil {
				return fmt.Errorf("item %q: %w", n.Label(), err)
			}
			it.ID = strings.TrimSpace(it.ID)
			if it.ID == "" {
				it.ID = newItemID()
			}
			if seen[it.ID] {
				return ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate id %s", it.ID)}
			}
			seen[it.ID] = true
			it.ParentID = model.StringPtr(parent)
			it.Order = i
			flat = append(flat, it)
			if err := walk(n.Children, it.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(doc.Items, "", 0); err != nil {
		return 0, err
	}

	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = slug
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getMenu(ctx, tx, slug); IsNotFound(err) {
			if _, err := tx.ExecContext(ctx, `INSERT INTO menus(slug, name, created_at_unixms) VALUES(?, ?, strftime('%s','now') * 1000)`, slug, name); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE menu = ?`, slug); err != nil {
			return err
		}
		for _, it := range flat {
			if r, err := loadItem(ctx, tx, it.ID); err == nil {
				return fmt.Errorf("item %s belongs to menu %s: %w", it.ID, r.menu, ErrExists)
			}
			if err := writeItem(ctx, tx, slug, it); err != nil {
				return err
			}
		}
		return appendEvent(ctx, tx, "menu.import", slug, slug, map[string]int{"items": len(flat)})
	})
	if err != nil {
		return 0, err
	}
	return len(flat), nil
}
