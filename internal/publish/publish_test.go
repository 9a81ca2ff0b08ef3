package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"menu-builder/internal/model"
)

func sampleTree() []model.MenuItem {
	return []model.MenuItem{
		{ID: "home", Title: "Home", Type: model.ItemTypeCustom, URL: "/", Target: model.TargetSelf},
		{ID: "shop", Title: "Shop", Type: model.ItemTypeCustom, URL: "/shop", Target: model.TargetSelf, Children: []model.MenuItem{
			{ID: "shoes", Type: model.ItemTypeCategory, ReferenceID: "shoes", Target: model.TargetSelf},
			{ID: "old", Title: "Old", Type: model.ItemTypeProduct, ReferenceID: "p-1", Target: model.TargetSelf,
				ReferenceStatus: &model.ReferenceStatus{Exists: true, Active: false, URL: "/product/p-1"}},
			{ID: "gone", Title: "Gone", Type: model.ItemTypePage, ReferenceID: "nope", Target: model.TargetBlank},
		}},
	}
}

func TestRenderMenuMarkdown_NestedLinksAndMarkers(t *testing.T) {
	t.Parallel()

	calls := 0
	resolve := func(typ model.ItemType, id string) (model.ReferenceStatus, error) {
		calls++
		if typ == model.ItemTypeCategory && id == "shoes" {
			return model.ReferenceStatus{Exists: true, Active: true, URL: "/category/shoes", Title: "Shoes"}, nil
		}
		return model.ReferenceStatus{}, nil
	}

	md, err := RenderMenuMarkdown(model.Menu{Slug: "main", Name: "Main"}, sampleTree(), RenderOptions{Resolve: resolve})
	if err != nil {
		t.Fatalf("RenderMenuMarkdown: %v", err)
	}
	for _, want := range []string{
		"# Main (main)\n",
		"- [Home](/)\n",
		"- [Shop](/shop)\n",
		"  - [Shoes](/category/shoes)\n",
		"  - [Old](/product/p-1) _(inactive)_\n",
		"  - [Gone](#) _(missing page nope, new tab)_\n",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in:\n%s", want, md)
		}
	}
	// "old" carried its own status.
	if calls != 2 {
		t.Fatalf("expected 2 resolve calls, got %d", calls)
	}
}

func TestRenderMenuMarkdown_ResolveError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := RenderMenuMarkdown(model.Menu{Slug: "main"}, sampleTree(), RenderOptions{
		Resolve: func(model.ItemType, string) (model.ReferenceStatus, error) { return model.ReferenceStatus{}, boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped resolve error, got %v", err)
	}
}

func TestRenderMenuMarkdown_EmptyMenu(t *testing.T) {
	t.Parallel()

	md, err := RenderMenuMarkdown(model.Menu{Slug: "footer"}, nil, RenderOptions{})
	if err != nil {
		t.Fatalf("RenderMenuMarkdown: %v", err)
	}
	if md != "# footer\n\n_No items._\n" {
		t.Fatalf("unexpected output: %q", md)
	}
}

func TestWriteMenu_RespectsOverwrite(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	menu := model.Menu{Slug: "main", Name: "Main"}
	res, err := WriteMenu(dir, menu, sampleTree(), WriteOptions{})
	if err != nil {
		t.Fatalf("WriteMenu: %v", err)
	}
	if len(res.Written) != 1 || res.Written[0] != filepath.Join(dir, "main.md") {
		t.Fatalf("unexpected result: %+v", res)
	}
	b, err := os.ReadFile(res.Written[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "- [Home](/)") {
		t.Fatalf("unexpected file content:\n%s", b)
	}

	if _, err := WriteMenu(dir, menu, sampleTree(), WriteOptions{}); err == nil {
		t.Fatalf("expected error when file exists")
	}
	if _, err := WriteMenu(dir, menu, nil, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}
