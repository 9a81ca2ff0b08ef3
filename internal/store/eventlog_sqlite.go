package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"menu-builder/internal/model"
)

// appendEvent records an audit event using x (a transaction when called from a mutation).
func appendEvent(ctx context.Context, x dbtx, typ, menu, entityID string, payload any) error {
	ev := model.Event{
		ID:       newEventID(),
		TS:       time.Now().UTC().Truncate(time.Millisecond),
		Type:     typ,
		Menu:     menu,
		EntityID: entityID,
		Payload:  payload,
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = x.ExecContext(ctx, `INSERT INTO events(id, ts_unixms, type, menu, entity_id, json) VALUES(?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.TS.UnixMilli(), ev.Type, ev.Menu, ev.EntityID, string(raw))
	return err
}

// AppendEvent records an event outside of any store mutation.
func (s *Store) AppendEvent(ctx context.Context, typ, menu, entityID string, payload any) error {
	return appendEvent(ctx, s.db, strings.TrimSpace(typ), strings.TrimSpace(menu), strings.TrimSpace(entityID), payload)
}

// ListEvents returns the menu's events, newest first. limit <= 0 returns all of them.
func (s *Store) ListEvents(ctx context.Context, menu string, limit int) ([]model.Event, error) {
	q := `SELECT json FROM events WHERE menu = ? ORDER BY ts_unixms DESC, rowid DESC`
	args := []any{strings.TrimSpace(menu)}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	evs, err := readJSONRows[model.Event](ctx, s.db, q, args...)
	if err != nil {
		return nil, err
	}
	if evs == nil {
		evs = []model.Event{}
	}
	return evs, nil
}
