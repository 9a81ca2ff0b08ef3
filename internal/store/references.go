package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"menu-builder/internal/model"
)

// ReferenceTarget is an entity (category, product, page, post) menu items can link to.
type ReferenceTarget struct {
	Type   model.ItemType `json:"type" yaml:"type"`
	ID     string         `json:"id" yaml:"id"`
	Title  string         `json:"title" yaml:"title"`
	URL    string         `json:"url,omitempty" yaml:"url,omitempty"`
	Active bool           `json:"active" yaml:"active"`
}

type refKey struct {
	typ model.ItemType
	id  string
}

func (s *Store) UpsertReference(ctx context.Context, t ReferenceTarget) (ReferenceTarget, error) {
	t.ID = strings.TrimSpace(t.ID)
	t.Title = strings.TrimSpace(t.Title)
	t.URL = strings.TrimSpace(t.URL)
	if !t.Type.IsReference() {
		return ReferenceTarget{}, ValidationError{Field: "type", Reason: fmt.Sprintf("%q is not a reference type", t.Type)}
	}
	if t.ID == "" {
		return ReferenceTarget{}, ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if t.URL == "" {
		t.URL = defaultReferenceURL(t.Type, t.ID)
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO reference_targets(type, id, title, url, active) VALUES(?, ?, ?, ?, ?)`,
		string(t.Type), t.ID, t.Title, t.URL, boolToInt(t.Active))
	if err != nil {
		return ReferenceTarget{}, err
	}
	return t, nil
}

func defaultReferenceURL(typ model.ItemType, id string) string {
	return "/" + string(typ) + "/" + id
}

// ResolveReference looks up a {type, referenceId} pair. Unknown pairs resolve to Exists=false
// rather than an error so callers can render them as broken links.
func (s *Store) ResolveReference(ctx context.Context, typ model.ItemType, referenceID string) (model.ReferenceStatus, error) {
	if !typ.IsReference() {
		return model.ReferenceStatus{}, ValidationError{Field: "type", Reason: fmt.Sprintf("%q is not a reference type", typ)}
	}
	var t ReferenceTarget
	var active int
	err := s.db.QueryRowContext(ctx, `SELECT title, url, active FROM reference_targets WHERE type = ? AND id = ?`,
		string(typ), strings.TrimSpace(referenceID)).Scan(&t.Title, &t.URL, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReferenceStatus{}, nil
	}
	if err != nil {
		return model.ReferenceStatus{}, err
	}
	return model.ReferenceStatus{Exists: true, Active: active != 0, URL: t.URL, Title: t.Title}, nil
}

func (s *Store) ListReferences(ctx context.Context, typ model.ItemType) ([]ReferenceTarget, error) {
	q := `SELECT type, id, title, url, active FROM reference_targets`
	var args []any
	if typ != "" {
		q += ` WHERE type = ?`
		args = append(args, string(typ))
	}
	q += ` ORDER BY type, id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ReferenceTarget{}
	for rows.Next() {
		var t ReferenceTarget
		var typ string
		var active int
		if err := rows.Scan(&typ, &t.ID, &t.Title, &t.URL, &active); err != nil {
			return nil, err
		}
		t.Type = model.ItemType(typ)
		t.Active = active != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) referenceIndex(ctx context.Context) (map[refKey]ReferenceTarget, error) {
	all, err := s.ListReferences(ctx, "")
	if err != nil {
		return nil, err
	}
	idx := make(map[refKey]ReferenceTarget, len(all))
	for _, t := range all {
		idx[refKey{typ: t.Type, id: t.ID}] = t
	}
	return idx, nil
}

// statusFor resolves an item against the preloaded targets. Custom items resolve to their literal URL.
func statusFor(it model.MenuItem, targets map[refKey]ReferenceTarget) model.ReferenceStatus {
	if it.Type == model.ItemTypeCustom || it.Type == "" {
		return model.ReferenceStatus{Exists: it.URL != "", Active: true, URL: it.URL, Title: it.Title}
	}
	t, ok := targets[refKey{typ: it.Type, id: it.ReferenceID}]
	if !ok {
		return model.ReferenceStatus{}
	}
	return model.ReferenceStatus{Exists: true, Active: t.Active, URL: t.URL, Title: t.Title}
}
