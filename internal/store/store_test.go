package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"menu-builder/internal/menutree"
	"menu-builder/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "menus.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustCreateMenu(t *testing.T, s *Store, slug string) {
	t.Helper()
	if _, err := s.CreateMenu(context.Background(), slug, ""); err != nil {
		t.Fatalf("create menu %s: %v", slug, err)
	}
}

func mustCreateItem(t *testing.T, s *Store, menu, id, parent string) model.MenuItem {
	t.Helper()
	it, err := s.CreateItem(context.Background(), menu, model.MenuItem{
		ID:       id,
		Title:    id,
		URL:      "/" + id,
		ParentID: model.StringPtr(parent),
	})
	if err != nil {
		t.Fatalf("create item %s: %v", id, err)
	}
	return it
}

func orders(t *testing.T, s *Store, menu string) map[string][2]any {
	t.Helper()
	items, err := s.ListItems(context.Background(), menu, false)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	out := map[string][2]any{}
	for _, it := range items {
		out[it.ID] = [2]any{it.Parent(), it.Order}
	}
	return out
}

func TestOpen_MigratesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "menus.sqlite")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.CreateMenu(ctx, "Main Menu", "Main"); err != nil {
		t.Fatalf("create menu: %v", err)
	}
	_ = s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	menus, err := s.ListMenus(ctx)
	if err != nil {
		t.Fatalf("list menus: %v", err)
	}
	if len(menus) != 1 || menus[0].Slug != "main-menu" || menus[0].Name != "Main" {
		t.Fatalf("unexpected menus: %+v", menus)
	}
}

func TestCreateMenu_Duplicate(t *testing.T) {
	s := openTestStore(t)
	mustCreateMenu(t, s, "main")
	_, err := s.CreateMenu(context.Background(), "main", "")
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := s.CreateMenu(context.Background(), "bad/slug", ""); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateItem_AppendsAndValidates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreateMenu(t, s, "main")

	a := mustCreateItem(t, s, "main", "A", "")
	b := mustCreateItem(t, s, "main", "B", "")
	c := mustCreateItem(t, s, "main", "C", "B")
	if a.Order != 0 || b.Order != 1 || c.Order != 0 {
		t.Fatalf("unexpected orders: a=%d b=%d c=%d", a.Order, b.Order, c.Order)
	}
	if a.Type != model.ItemTypeCustom || a.Target != model.TargetSelf {
		t.Fatalf("expected defaults, got type=%q target=%q", a.Type, a.Target)
	}

	generated, err := s.CreateItem(ctx, "main", model.MenuItem{Type: model.ItemTypePage, ReferenceID: "about"})
	if err != nil {
		t.Fatalf("create page item: %v", err)
	}
	if len(generated.ID) < 4 || generated.ID[:3] != "mi-" {
		t.Fatalf("expected generated mi- id, got %q", generated.ID)
	}

	cases := []struct {
		name string
		item model.MenuItem
	}{
		{name: "custom without url", item: model.MenuItem{Type: model.ItemTypeCustom}},
		{name: "reference without id", item: model.MenuItem{Type: model.ItemTypeProduct}},
		{name: "unknown type", item: model.MenuItem{Type: "video", URL: "/x"}},
		{name: "unknown target", item: model.MenuItem{URL: "/x", Target: "_top"}},
	}
	for _, tc := range cases {
		if _, err := s.CreateItem(ctx, "main", tc.item); !IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}

	if _, err := s.CreateItem(ctx, "main", model.MenuItem{ID: "A", URL: "/a"}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists for duplicate id, got %v", err)
	}
	if _, err := s.CreateItem(ctx, "main", model.MenuItem{URL: "/x", ParentID: model.StringPtr("nope")}); !IsNotFound(err) {
		t.Fatalf("expected not found parent, got %v", err)
	}
	if _, err := s.CreateItem(ctx, "missing", model.MenuItem{URL: "/x"}); !IsNotFound(err) {
		t.Fatalf("expected not found menu, got %v", err)
	}
}

func TestCreateItem_DepthLimit(t *testing.T) {
	s := openTestStore(t)
	mustCreateMenu(t, s, "main")
	mustCreateItem(t, s, "main", "A", "")
	mustCreateItem(t, s, "main", "B", "A")
	mustCreateItem(t, s, "main", "C", "B")

	_, err := s.CreateItem(context.Background(), "main", model.MenuItem{URL: "/d", ParentID: model.StringPtr("C")})
	if !IsValidation(err) {
		t.Fatalf("expected depth validation error, got %v", err)
	}
}

func TestUpdateItem_FieldsOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreateMenu(t, s, "main")
	mustCreateItem(t, s, "main", "A", "")
	mustCreateItem(t, s, "main", "B", "A")

	title := "Shop"
	target := model.TargetBlank
	got, err := s.UpdateItem(ctx, "main", "B", ItemPatch{Title: &title, Target: &target})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "Shop" || got.Target != model.TargetBlank || got.Parent() != "A" || got.Order != 0 {
		t.Fatalf("unexpected item after update: %+v", got)
	}

	bad := model.ItemTypeCategory
	if _, err := s.UpdateItem(ctx, "main", "B", ItemPatch{Type: &bad}); !IsValidation(err) {
		t.Fatalf("expected validation error switching to category without reference, got %v", err)
	}
	if _, err := s.UpdateItem(ctx, "other", "B", ItemPatch{Title: &title}); !IsNotFound(err) {
		t.Fatalf("expected not found for wrong menu, got %v", err)
	}
}

func TestDeleteItem_RemovesSubtreeAndRenumbers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreateMenu(t, s, "main")
	mustCreateItem(t, s, "main", "A", "")
	mustCreateItem(t, s, "main", "B", "")
	mustCreateItem(t, s, "main", "B1", "B")
	mustCreateItem(t, s, "main", "B1a", "B1")
	mustCreateItem(t, s, "main", "C", "")

	removed, err := s.DeleteItem(ctx, "", "B")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(removed) != 3 || removed[0] != "B" {
		t.Fatalf("unexpected removed ids: %v", removed)
	}

	got := orders(t, s, "main")
	if len(got) != 2 {
		t.Fatalf("expected 2 items left, got %v", got)
	}
	if got["A"] != [2]any{"", 0} || got["C"] != [2]any{"", 1} {
		t.Fatalf("unexpected placement after delete: %v", got)
	}

	if _, err := s.DeleteItem(ctx, "", "B"); !IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestDuplicateItem_InsertsAfterOriginal(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreateMenu(t, s, "main")
	mustCreateItem(t, s, "main", "A", "")
	mustCreateItem(t, s, "main", "A1", "A")
	mustCreateItem(t, s, "main", "B", "")

	cp, err := s.DuplicateItem(ctx, "main", "A")
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if cp.ID == "A" || cp.Title != "A (copy)" || cp.Order != 1 {
		t.Fatalf("unexpected copy: %+v", cp)
	}

	tree := menutree.Build(mustList(t, s, "main"))
	if len(tree) != 3 || tree[0].ID != "A" || tree[1].ID != cp.ID || tree[2].ID != "B" {
		t.Fatalf("unexpected root order: %+v", menutree.ToStructure(tree))
	}
	if len(tree[1].Children) != 0 {
		t.Fatalf("copy must not carry children")
	}
	if tree[2].Order != 2 {
		t.Fatalf("expected B shifted to 2, got %d", tree[2].Order)
	}
}

func mustList(t *testing.T, s *Store, menu string) []model.MenuItem {
	t.Helper()
	items, err := s.ListItems(context.Background(), menu, false)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	return items
}

func TestSaveStructure_RewritesPlacement(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreateMenu(t, s, "main")
	mustCreateItem(t, s, "main", "A", "")
	mustCreateItem(t, s, "main", "B", "")
	mustCreateItem(t, s, "main", "C", "B")

	nodes := []model.StructureNode{
		{ID: "B", Children: []model.StructureNode{
			{ID: "C", Children: []model.StructureNode{}},
			{ID: "A", Children: []model.StructureNode{}},
		}},
	}
	if err := s.SaveStructure(ctx, "main", nodes); err != nil {
		t.Fatalf("save structure: %v", err)
	}

	got := orders(t, s, "main")
	want := map[string][2]any{"B": {"", 0}, "C": {"B", 0}, "A": {"B", 1}}
	for id, w := range want {
		if got[id] != w {
			t.Fatalf("%s: want %v, got %v", id, w, got[id])
		}
	}

	tree := menutree.Build(mustList(t, s, "main"))
	structure := menutree.ToStructure(tree)
	if len(structure) != 1 || structure[0].ID != "B" || len(structure[0].Children) != 2 || structure[0].Children[1].ID != "A" {
		t.Fatalf("unexpected structure: %+v", structure)
	}
}

func TestSaveStructure_PartialPayloadKeepsOrdersContiguous(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreateMenu(t, s, "main")
	mustCreateItem(t, s, "main", "A", "")
	mustCreateItem(t, s, "main", "B", "A")
	mustCreateItem(t, s, "main", "C", "")
	mustCreateItem(t, s, "main", "D", "")

	if err := s.SaveStructure(ctx, "main", []model.StructureNode{{ID: "B", Children: []model.StructureNode{{ID: "A"}}}}); err != nil {
		t.Fatalf("save structure: %v", err)
	}
	if err := s.SaveStructure(ctx, "main", []model.StructureNode{{ID: "D"}}); err != nil {
		t.Fatalf("save structure: %v", err)
	}

	got := orders(t, s, "main")
	want := map[string][2]any{"D": {"", 0}, "B": {"", 1}, "C": {"", 2}, "A": {"B", 0}}
	for id, w := range want {
		if got[id] != w {
			t.Fatalf("%s: want %v, got %v (all: %v)", id, w, got[id], got)
		}
	}
}

func TestSaveStructure_RejectsLeftOutChildPushedTooDeep(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreateMenu(t, s, "main")
	mustCreateItem(t, s, "main", "A", "")
	mustCreateItem(t, s, "main", "B", "A")
	mustCreateItem(t, s, "main", "C", "B")
	mustCreateItem(t, s, "main", "D", "")
	before := orders(t, s, "main")

	// C is left out but follows B, which lands at depth 2.
	err := s.SaveStructure(ctx, "main", []model.StructureNode{{ID: "D", Children: []model.StructureNode{{ID: "A"}}}})
	if !IsValidation(err) {
		t.Fatalf("expected depth validation error, got %v", err)
	}
	after := orders(t, s, "main")
	for id, w := range before {
		if after[id] != w {
			t.Fatalf("%s changed after rejected save: %v -> %v", id, w, after[id])
		}
	}
}

func TestSaveStructure_Rejects(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreateMenu(t, s, "main")
	mustCreateMenu(t, s, "footer")
	mustCreateItem(t, s, "main", "A", "")
	mustCreateItem(t, s, "main", "B", "")
	mustCreateItem(t, s, "footer", "F", "")
	before := orders(t, s, "main")

	err := s.SaveStructure(ctx, "main", []model.StructureNode{{ID: "F"}, {ID: "A"}})
	if !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
	err = s.SaveStructure(ctx, "main", []model.StructureNode{{ID: "A", Children: []model.StructureNode{{ID: "A"}}}})
	if !IsValidation(err) {
		t.Fatalf("expected duplicate validation error, got %v", err)
	}
	deep := []model.StructureNode{{ID: "A", Children: []model.StructureNode{{ID: "B", Children: []model.StructureNode{{ID: "x", Children: []model.StructureNode{{ID: "y"}}}}}}}}
	if err := s.SaveStructure(ctx, "main", deep); !IsValidation(err) {
		t.Fatalf("expected depth validation error, got %v", err)
	}
	if err := s.SaveStructure(ctx, "nope", nil); !IsNotFound(err) {
		t.Fatalf("expected not found menu, got %v", err)
	}

	after := orders(t, s, "main")
	for id, w := range before {
		if after[id] != w {
			t.Fatalf("rejected save changed %s: %v -> %v", id, w, after[id])
		}
	}
}

func TestReferences_ResolveAndStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreateMenu(t, s, "main")

	if _, err := s.UpsertReference(ctx, ReferenceTarget{Type: model.ItemTypeCategory, ID: "shoes", Title: "Shoes", Active: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := s.UpsertReference(ctx, ReferenceTarget{Type: model.ItemTypePage, ID: "old", Title: "Old", URL: "/legacy", Active: false}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := s.UpsertReference(ctx, ReferenceTarget{Type: model.ItemTypeCustom, ID: "x"}); !IsValidation(err) {
		t.Fatalf("expected validation error for custom reference, got %v", err)
	}

	st, err := s.ResolveReference(ctx, model.ItemTypeCategory, "shoes")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !st.Exists || !st.Active || st.URL != "/category/shoes" || st.Title != "Shoes" {
		t.Fatalf("unexpected status: %+v", st)
	}
	st, err = s.ResolveReference(ctx, model.ItemTypeProduct, "missing")
	if err != nil || st.Exists {
		t.Fatalf("expected missing reference to resolve as not existing, got %+v err=%v", st, err)
	}

	for _, it := range []model.MenuItem{
		{ID: "c", Type: model.ItemTypeCategory, ReferenceID: "shoes"},
		{ID: "p", Type: model.ItemTypePage, ReferenceID: "old"},
		{ID: "u", URL: "https://example.com"},
		{ID: "gone", Type: model.ItemTypePost, ReferenceID: "deleted"},
	} {
		if _, err := s.CreateItem(ctx, "main", it); err != nil {
			t.Fatalf("create %s: %v", it.ID, err)
		}
	}
	items, err := s.ListItems(ctx, "main", true)
	if err != nil {
		t.Fatalf("list with status: %v", err)
	}
	byID := map[string]model.ReferenceStatus{}
	for _, it := range items {
		if it.ReferenceStatus == nil {
			t.Fatalf("%s: missing reference status", it.ID)
		}
		byID[it.ID] = *it.ReferenceStatus
	}
	if !byID["c"].Active || byID["c"].URL != "/category/shoes" {
		t.Fatalf("category status: %+v", byID["c"])
	}
	if !byID["p"].Exists || byID["p"].Active {
		t.Fatalf("inactive page status: %+v", byID["p"])
	}
	if byID["u"].URL != "https://example.com" || !byID["u"].Active {
		t.Fatalf("custom status: %+v", byID["u"])
	}
	if byID["gone"].Exists {
		t.Fatalf("deleted reference should not exist: %+v", byID["gone"])
	}
}

func TestEvents_AppendedByMutations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreateMenu(t, s, "main")
	mustCreateItem(t, s, "main", "A", "")
	mustCreateItem(t, s, "main", "B", "")
	if err := s.SaveStructure(ctx, "main", []model.StructureNode{{ID: "B"}, {ID: "A"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	evs, err := s.ListEvents(ctx, "main", 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(evs) != 4 {
		t.Fatalf("expected 4 events, got %d: %+v", len(evs), evs)
	}
	if evs[0].Type != "menu.structure" || evs[len(evs)-1].Type != "menu.create" {
		t.Fatalf("expected newest first, got %s ... %s", evs[0].Type, evs[len(evs)-1].Type)
	}

	limited, err := s.ListEvents(ctx, "main", 2)
	if err != nil {
		t.Fatalf("list events limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 events, got %d", len(limited))
	}
	none, err := s.ListEvents(ctx, "other", 0)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no events for other menu, got %v err=%v", none, err)
	}
}

func TestImportMenu_FromYAML(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc, err := ParseMenuDocument([]byte(`
slug: main
name: Main navigation
references:
  - {type: category, id: shoes, title: Shoes, active: true}
items:
  - id: home
    title: Home
    url: /
  - id: shop
    title: Shop
    url: /shop
    children:
      - title: Shoes
        type: category
        referenceId: shoes
        target: _blank
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	n, err := s.ImportMenu(ctx, doc)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 items, got %d", n)
	}

	items, err := s.ListItems(ctx, "main", true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	tree := menutree.Build(items)
	if len(tree) != 2 || tree[0].ID != "home" || tree[1].ID != "shop" || len(tree[1].Children) != 1 {
		t.Fatalf("unexpected imported tree: %+v", menutree.ToStructure(tree))
	}
	shoes := tree[1].Children[0]
	if shoes.Target != model.TargetBlank || shoes.ReferenceStatus == nil || !shoes.ReferenceStatus.Active {
		t.Fatalf("unexpected child: %+v", shoes)
	}

	// Re-import replaces the items.
	doc.Items = doc.Items[:1]
	if _, err := s.ImportMenu(ctx, doc); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if got := mustList(t, s, "main"); len(got) != 1 {
		t.Fatalf("expected 1 item after re-import, got %d", len(got))
	}
}

func TestListItems_OrphanIsReturned(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreateMenu(t, s, "main")
	mustCreateItem(t, s, "main", "A", "")
	if err := writeItem(ctx, s.db, "main", model.MenuItem{ID: "O", Type: model.ItemTypeCustom, URL: "/o", ParentID: model.StringPtr("deleted")}); err != nil {
		t.Fatalf("write orphan: %v", err)
	}

	tree := menutree.Build(mustList(t, s, "main"))
	if len(tree) != 2 {
		t.Fatalf("orphan should surface as a root, got %+v", menutree.ToStructure(tree))
	}
}
