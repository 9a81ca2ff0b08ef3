package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menu-builder/internal/model"
	"menu-builder/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "menus.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv := New(st, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func do(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			rd = strings.NewReader(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			rd = bytes.NewReader(b)
		}
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	_, err := st.CreateMenu(ctx, "main", "Main")
	require.NoError(t, err)
	for _, it := range []model.MenuItem{
		{ID: "A", Title: "A", URL: "/a"},
		{ID: "B", Title: "B", URL: "/b"},
		{ID: "C", Title: "C", URL: "/c", ParentID: model.StringPtr("B")},
	} {
		_, err := st.CreateItem(ctx, "main", it)
		require.NoError(t, err)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, body = do(t, http.MethodGet, ts.URL+"/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "menubuilder_http_requests_total")
}

func TestMenusAndItems(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := do(t, http.MethodPost, ts.URL+"/menus", map[string]string{"slug": "main", "name": "Main"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, body := do(t, http.MethodPost, ts.URL+"/menus", map[string]string{"slug": "main"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), `"error"`)

	resp, body = do(t, http.MethodPost, ts.URL+"/menus/main/items", model.MenuItem{Title: "Home", URL: "/"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var home model.MenuItem
	require.NoError(t, json.Unmarshal(body, &home))
	assert.True(t, strings.HasPrefix(home.ID, "mi-"))

	resp, body = do(t, http.MethodPatch, ts.URL+"/menus/main/items/"+home.ID, `{"title":"Start","target":"_blank"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated model.MenuItem
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Start", updated.Title)
	assert.Equal(t, model.TargetBlank, updated.Target)

	resp, body = do(t, http.MethodPost, ts.URL+"/menus/main/items/"+home.ID+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = do(t, http.MethodGet, ts.URL+"/menus/main/items", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []model.MenuItem
	require.NoError(t, json.Unmarshal(body, &items))
	assert.Len(t, items, 2)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/menus/main/items/"+home.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, http.MethodDelete, ts.URL+"/menus/main/items/"+home.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, ts.URL+"/menus/nope/items", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, http.MethodPost, ts.URL+"/menus/main/items", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSaveStructure(t *testing.T) {
	ts, st := newTestServer(t)
	seed(t, st)

	payload := `[{"id":"B","children":[{"id":"C","children":[]},{"id":"A","children":[]}]}]`
	resp, body := do(t, http.MethodPost, ts.URL+"/menus/main/structure", payload)
	require.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

	resp, body = do(t, http.MethodGet, ts.URL+"/menus/main/structure", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, payload, string(body))

	resp, body = do(t, http.MethodGet, ts.URL+"/menus/main/items?tree=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tree []model.MenuItem
	require.NoError(t, json.Unmarshal(body, &tree))
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "A", tree[0].Children[1].ID)
	assert.Equal(t, 1, tree[0].Children[1].Order)

	resp, _ = do(t, http.MethodPost, ts.URL+"/menus/main/structure", `[{"id":"ghost","children":[]}]`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = do(t, http.MethodGet, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `menubuilder_structure_saves_total{result="ok"} 1`)
	assert.Contains(t, string(body), `menubuilder_structure_saves_total{result="error"} 1`)
}

func TestReferencesAndEvents(t *testing.T) {
	ts, st := newTestServer(t)
	seed(t, st)

	resp, body := do(t, http.MethodPut, ts.URL+"/references/category/shoes", `{"title":"Shoes","active":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = do(t, http.MethodGet, ts.URL+"/references/category/shoes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rs model.ReferenceStatus
	require.NoError(t, json.Unmarshal(body, &rs))
	assert.Equal(t, model.ReferenceStatus{Exists: true, Active: true, URL: "/category/shoes", Title: "Shoes"}, rs)

	resp, _ = do(t, http.MethodGet, ts.URL+"/references/custom/x", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = do(t, http.MethodGet, ts.URL+"/menus/main/events?limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var evs []model.Event
	require.NoError(t, json.Unmarshal(body, &evs))
	assert.Len(t, evs, 2)

	resp, _ = do(t, http.MethodGet, ts.URL+"/menus/main/events?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServe_GracefulShutdown(t *testing.T) {
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "menus.sqlite"))
	require.NoError(t, err)
	defer st.Close()

	srv := New(st, WithAddr("127.0.0.1:0"), WithShutdownTimeout(time.Second),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	require.Eventually(t, srv.IsRunning, 2*time.Second, 10*time.Millisecond)
	resp, body := do(t, http.MethodGet, "http://"+srv.Addr()+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.False(t, srv.IsRunning())
}
