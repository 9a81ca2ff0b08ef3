package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/CAFxX/httpcompression"

	"menu-builder/internal/menutree"
	"menu-builder/internal/model"
	"menu-builder/internal/reorder"
	"menu-builder/internal/store"
)

// Backend is the storage the API serves. *store.Store implements it.
type Backend interface {
	ListMenus(ctx context.Context) ([]model.Menu, error)
	CreateMenu(ctx context.Context, slug, name string) (model.Menu, error)
	ListItems(ctx context.Context, menu string, withStatus bool) ([]model.MenuItem, error)
	CreateItem(ctx context.Context, menu string, it model.MenuItem) (model.MenuItem, error)
	UpdateItem(ctx context.Context, menu, id string, patch store.ItemPatch) (model.MenuItem, error)
	DeleteItem(ctx context.Context, menu, id string) ([]string, error)
	DuplicateItem(ctx context.Context, menu, id string) (model.MenuItem, error)
	SaveStructure(ctx context.Context, menu string, nodes []model.StructureNode) error
	ResolveReference(ctx context.Context, typ model.ItemType, referenceID string) (model.ReferenceStatus, error)
	UpsertReference(ctx context.Context, t store.ReferenceTarget) (store.ReferenceTarget, error)
	ListReferences(ctx context.Context, typ model.ItemType) ([]store.ReferenceTarget, error)
	ListEvents(ctx context.Context, menu string, limit int) ([]model.Event, error)
}

// maxBodyBytes caps request bodies; a full menu structure is far smaller.
const maxBodyBytes = 4 << 20

var errBadRequest = errors.New("bad request")

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.handler())

	mux.HandleFunc("GET /menus", s.handleListMenus)
	mux.HandleFunc("POST /menus", s.handleCreateMenu)
	mux.HandleFunc("GET /menus/{menu}/items", s.handleListItems)
	mux.HandleFunc("POST /menus/{menu}/items", s.handleCreateItem)
	mux.HandleFunc("PATCH /menus/{menu}/items/{id}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /menus/{menu}/items/{id}", s.handleDeleteItem)
	mux.HandleFunc("POST /menus/{menu}/items/{id}/duplicate", s.handleDuplicateItem)
	mux.HandleFunc("GET /menus/{menu}/structure", s.handleGetStructure)
	mux.HandleFunc("POST /menus/{menu}/structure", s.handleSaveStructure)
	mux.HandleFunc("GET /menus/{menu}/events", s.handleListEvents)

	mux.HandleFunc("GET /references", s.handleListReferences)
	mux.HandleFunc("GET /references/{type}/{id}", s.handleResolveReference)
	mux.HandleFunc("PUT /references/{type}/{id}", s.handleUpsertReference)

	var h http.Handler = mux
	if compress, err := httpcompression.DefaultAdapter(); err != nil {
		s.log.Warn("response compression disabled", "error", err)
	} else {
		h = compress(mux)
	}

	// The watch feed hijacks the connection, so it bypasses compression and request accounting.
	top := http.NewServeMux()
	top.HandleFunc("GET /menus/{menu}/watch", s.handleWatch)
	top.Handle("/", s.instrument(h))
	return top
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleListMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := s.backend.ListMenus(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menus)
}

func (s *Server) handleCreateMenu(w http.ResponseWriter, r *http.Request) {
	var in model.Menu
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	m, err := s.backend.CreateMenu(r.Context(), in.Slug, in.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	withStatus := queryBool(r, "status")
	items, err := s.backend.ListItems(r.Context(), r.PathValue("menu"), withStatus)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if queryBool(r, "tree") {
		writeJSON(w, http.StatusOK, menutree.Build(items))
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var in model.MenuItem
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	it, err := s.backend.CreateItem(r.Context(), r.PathValue("menu"), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.itemMutations.WithLabelValues("create").Inc()
	s.publish(r.PathValue("menu"), "item.create", it.ID)
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch store.ItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, err)
		return
	}
	it, err := s.backend.UpdateItem(r.Context(), r.PathValue("menu"), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.itemMutations.WithLabelValues("update").Inc()
	s.publish(r.PathValue("menu"), "item.update", it.ID)
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	removed, err := s.backend.DeleteItem(r.Context(), r.PathValue("menu"), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.itemMutations.WithLabelValues("delete").Inc()
	s.publish(r.PathValue("menu"), "item.delete", r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (s *Server) handleDuplicateItem(w http.ResponseWriter, r *http.Request) {
	it, err := s.backend.DuplicateItem(r.Context(), r.PathValue("menu"), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.itemMutations.WithLabelValues("duplicate").Inc()
	s.publish(r.PathValue("menu"), "item.duplicate", it.ID)
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) handleGetStructure(w http.ResponseWriter, r *http.Request) {
	items, err := s.backend.ListItems(r.Context(), r.PathValue("menu"), false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menutree.ToStructure(menutree.Build(items)))
}

func (s *Server) handleSaveStructure(w http.ResponseWriter, r *http.Request) {
	var nodes []model.StructureNode
	if err := decodeJSON(r, &nodes); err != nil {
		s.metrics.structureSaves.WithLabelValues("error").Inc()
		s.writeError(w, err)
		return
	}
	menu := r.PathValue("menu")
	if err := s.backend.SaveStructure(r.Context(), menu, nodes); err != nil {
		s.metrics.structureSaves.WithLabelValues("error").Inc()
		s.writeError(w, err)
		return
	}
	s.metrics.structureSaves.WithLabelValues("ok").Inc()
	s.publish(menu, "menu.structure", menu)
	s.log.Debug("structure saved", "menu", menu, "roots", len(nodes))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, errBadRequest)
			return
		}
		limit = n
	}
	evs, err := s.backend.ListEvents(r.Context(), r.PathValue("menu"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

func (s *Server) handleListReferences(w http.ResponseWriter, r *http.Request) {
	refs, err := s.backend.ListReferences(r.Context(), model.ItemType(r.URL.Query().Get("type")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

func (s *Server) handleResolveReference(w http.ResponseWriter, r *http.Request) {
	st, err := s.backend.ResolveReference(r.Context(), model.ItemType(r.PathValue("type")), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleUpsertReference(w http.ResponseWriter, r *http.Request) {
	var in store.ReferenceTarget
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	in.Type = model.ItemType(r.PathValue("type"))
	in.ID = r.PathValue("id")
	t, err := s.backend.UpsertReference(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case store.IsNotFound(err):
		return http.StatusNotFound
	case store.IsValidation(err), reorder.IsRejection(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
