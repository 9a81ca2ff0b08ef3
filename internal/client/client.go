// Package client talks to the menu API. It mirrors the API routes and satisfies the persistence
// coordinator's Saver, so the terminal panel can save through a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"menu-builder/internal/model"
	"menu-builder/internal/store"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(e.Body), &body) == nil && body.Error != "" {
		return fmt.Sprintf("server returned %d: %s", e.Code, body.Error)
	}
	return fmt.Sprintf("server returned %d", e.Code)
}

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string, hc *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{base: baseURL, http: hc}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func menuPath(menu string, parts ...string) string {
	p := "/menus/" + url.PathEscape(menu)
	for _, x := range parts {
		p += "/" + url.PathEscape(x)
	}
	return p
}

func (c *Client) ListMenus(ctx context.Context) ([]model.Menu, error) {
	var out []model.Menu
	err := c.do(ctx, http.MethodGet, "/menus", nil, &out)
	return out, err
}

func (c *Client) CreateMenu(ctx context.Context, slug, name string) (model.Menu, error) {
	var out model.Menu
	err := c.do(ctx, http.MethodPost, "/menus", model.Menu{Slug: slug, Name: name}, &out)
	return out, err
}

func (c *Client) ListItems(ctx context.Context, menu string, withStatus bool) ([]model.MenuItem, error) {
	var out []model.MenuItem
	q := ""
	if withStatus {
		q = "?status=1"
	}
	err := c.do(ctx, http.MethodGet, menuPath(menu, "items")+q, nil, &out)
	return out, err
}

func (c *Client) CreateItem(ctx context.Context, menu string, it model.MenuItem) (model.MenuItem, error) {
	var out model.MenuItem
	err := c.do(ctx, http.MethodPost, menuPath(menu, "items"), it, &out)
	return out, err
}

func (c *Client) UpdateItem(ctx context.Context, menu, id string, patch store.ItemPatch) (model.MenuItem, error) {
	var out model.MenuItem
	err := c.do(ctx, http.MethodPatch, menuPath(menu, "items", id), patch, &out)
	return out, err
}

func (c *Client) DeleteItem(ctx context.Context, menu, id string) ([]string, error) {
	var out struct {
		Removed []string `json:"removed"`
	}
	err := c.do(ctx, http.MethodDelete, menuPath(menu, "items", id), nil, &out)
	return out.Removed, err
}

func (c *Client) DuplicateItem(ctx context.Context, menu, id string) (model.MenuItem, error) {
	var out model.MenuItem
	err := c.do(ctx, http.MethodPost, menuPath(menu, "items", id, "duplicate"), nil, &out)
	return out, err
}

// SaveStructure posts the full nested order of the menu.
func (c *Client) SaveStructure(ctx context.Context, menu string, nodes []model.StructureNode) error {
	if nodes == nil {
		nodes = []model.StructureNode{}
	}
	return c.do(ctx, http.MethodPost, menuPath(menu, "structure"), nodes, nil)
}

func (c *Client) ResolveReference(ctx context.Context, typ model.ItemType, referenceID string) (model.ReferenceStatus, error) {
	var out model.ReferenceStatus
	path := "/references/" + url.PathEscape(string(typ)) + "/" + url.PathEscape(referenceID)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) UpsertReference(ctx context.Context, t store.ReferenceTarget) (store.ReferenceTarget, error) {
	var out store.ReferenceTarget
	path := "/references/" + url.PathEscape(string(t.Type)) + "/" + url.PathEscape(t.ID)
	err := c.do(ctx, http.MethodPut, path, t, &out)
	return out, err
}

func (c *Client) ListReferences(ctx context.Context, typ model.ItemType) ([]store.ReferenceTarget, error) {
	var out []store.ReferenceTarget
	path := "/references"
	if typ != "" {
		path += "?type=" + url.QueryEscape(string(typ))
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) ListEvents(ctx context.Context, menu string, limit int) ([]model.Event, error) {
	var out []model.Event
	path := menuPath(menu, "events")
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}
