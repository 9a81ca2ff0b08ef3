package menutree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menu-builder/internal/model"
)

func item(id, parent string, order int) model.MenuItem {
	return model.MenuItem{
		ID:        id,
		Title:     "Item " + id,
		Type:      model.ItemTypeCustom,
		URL:       "/" + id,
		Target:    model.TargetSelf,
		Order:     order,
		ParentID:  model.StringPtr(parent),
		CSSClass:  "css-" + id,
		IconClass: "icon-" + id,
	}
}

func sampleFlat() []model.MenuItem {
	return []model.MenuItem{
		item("c", "b", 0),
		item("a", "", 1),
		item("b", "", 0),
		item("d", "b", 1),
		item("e", "d", 0),
	}
}

func ids(nodes []model.MenuItem) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuild_GroupsAndSortsByOrder(t *testing.T) {
	t.Parallel()

	tree := Build(sampleFlat())

	require.Equal(t, []string{"b", "a"}, ids(tree))
	require.Equal(t, []string{"c", "d"}, ids(tree[0].Children))
	require.Equal(t, []string{"e"}, ids(tree[0].Children[1].Children))
	assert.Equal(t, "css-e", tree[0].Children[1].Children[0].CSSClass)
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	flat := sampleFlat()
	flat[1].Children = []model.MenuItem{item("stale", "a", 0)}
	before := Clone(flat)

	_ = Build(flat)

	require.Equal(t, before, flat)
}

func TestBuild_OrphanBecomesRoot(t *testing.T) {
	t.Parallel()

	flat := []model.MenuItem{item("a", "", 0), item("x", "ghost", 0)}
	tree := Build(flat)

	require.Equal(t, []string{"a", "x"}, ids(tree))
	// Fields are preserved as-is, including the dangling parent id.
	assert.Equal(t, "ghost", tree[1].Parent())
	assert.Equal(t, 0, Depth("x", flat))
}

func TestBuild_BreaksParentCycle(t *testing.T) {
	t.Parallel()

	flat := []model.MenuItem{item("a", "b", 0), item("b", "a", 0), item("r", "", 0)}
	tree := Build(flat)

	require.Len(t, Flatten(tree, nil), 3)
	require.Equal(t, []string{"r", "a"}, ids(tree))
	require.Equal(t, []string{"b"}, ids(tree[1].Children))
}

func TestFlattenBuild_RoundTrip(t *testing.T) {
	t.Parallel()

	flat := sampleFlat()
	out := Flatten(Build(flat), nil)

	require.Len(t, out, len(flat))
	byID := map[string]model.MenuItem{}
	for _, it := range out {
		assert.Nil(t, it.Children)
		byID[it.ID] = it
	}
	for _, want := range flat {
		got, ok := byID[want.ID]
		require.True(t, ok, want.ID)
		assert.Equal(t, want, got)
	}
	// Parent before children.
	assert.Equal(t, []string{"b", "c", "d", "e", "a"}, ids(out))
}

func TestFlatten_OwnParentIDWins(t *testing.T) {
	t.Parallel()

	tree := []model.MenuItem{{
		ID: "p",
		Children: []model.MenuItem{
			{ID: "kid"},
			{ID: "explicit", ParentID: model.StringPtr("elsewhere")},
		},
	}}
	out := Flatten(tree, model.StringPtr("top"))

	require.Equal(t, "top", out[0].Parent())
	require.Equal(t, "p", out[1].Parent())
	require.Equal(t, "elsewhere", out[2].Parent())
}

func TestToStructure_KeepsOnlyIDsAndChildren(t *testing.T) {
	t.Parallel()

	got := ToStructure(Build(sampleFlat()))
	want := []model.StructureNode{
		{ID: "b", Children: []model.StructureNode{
			{ID: "c", Children: []model.StructureNode{}},
			{ID: "d", Children: []model.StructureNode{{ID: "e", Children: []model.StructureNode{}}}},
		}},
		{ID: "a", Children: []model.StructureNode{}},
	}
	require.Equal(t, want, got)
}

func TestFind(t *testing.T) {
	t.Parallel()

	tree := Build(sampleFlat())
	d := Find(tree, "d")
	require.NotNil(t, d)
	require.Equal(t, []string{"e"}, ids(d.Children))
	require.Nil(t, Find(tree, "nope"))
	require.Nil(t, Find(tree, ""))
}

func TestDepthAndSubtreeDepth(t *testing.T) {
	t.Parallel()

	flat := sampleFlat()
	tree := Build(flat)

	assert.Equal(t, 0, Depth("b", flat))
	assert.Equal(t, 1, Depth("d", flat))
	assert.Equal(t, 2, Depth("e", flat))
	assert.Equal(t, 0, Depth("missing", flat))

	assert.Equal(t, 2, SubtreeDepth(*Find(tree, "b")))
	assert.Equal(t, 1, SubtreeDepth(*Find(tree, "d")))
	assert.Equal(t, 0, SubtreeDepth(*Find(tree, "a")))
}

func TestSubtreeDepth_ParentExceedsEveryChild(t *testing.T) {
	t.Parallel()

	var check func(n model.MenuItem)
	check = func(n model.MenuItem) {
		for _, ch := range n.Children {
			assert.GreaterOrEqual(t, SubtreeDepth(n), 1+SubtreeDepth(ch))
			check(ch)
		}
	}
	for _, r := range Build(sampleFlat()) {
		check(r)
	}
}

func TestDepth_TerminatesOnCycle(t *testing.T) {
	t.Parallel()

	flat := []model.MenuItem{item("a", "b", 0), item("b", "a", 0)}
	assert.LessOrEqual(t, Depth("a", flat), len(flat))
}

func TestRenumber_ContiguousPerParent(t *testing.T) {
	t.Parallel()

	flat := []model.MenuItem{item("a", "", 7), item("b", "", 9), item("c", "b", 4), item("d", "b", 40)}
	tree := Renumber(Build(flat))

	for _, it := range Flatten(tree, nil) {
		switch it.ID {
		case "a", "c":
			assert.Equal(t, 0, it.Order, it.ID)
		case "b", "d":
			assert.Equal(t, 1, it.Order, it.ID)
		}
	}
	assert.Equal(t, "b", Find(tree, "d").Parent())
	// Input left untouched.
	assert.Equal(t, 7, flat[0].Order)
}

func TestRemoveAndInsert(t *testing.T) {
	t.Parallel()

	tree := Build(sampleFlat())

	rest, removed, ok := Remove(tree, "d")
	require.True(t, ok)
	require.Equal(t, []string{"e"}, ids(removed.Children))
	require.Equal(t, []string{"c"}, ids(rest[0].Children))
	require.Equal(t, []string{"c", "d"}, ids(tree[0].Children), "original tree must not change")

	got, ok := Insert(rest, "", removed, "b", false)
	require.True(t, ok)
	require.Equal(t, []string{"d", "b", "a"}, ids(got))

	got, ok = Insert(rest, "b", removed, "c", true)
	require.True(t, ok)
	require.Equal(t, []string{"c", "d"}, ids(got[0].Children))

	got, ok = Insert(rest, "a", removed, "", false)
	require.True(t, ok)
	require.Equal(t, []string{"d"}, ids(Find(got, "a").Children))

	_, ok = Insert(rest, "ghost", removed, "", false)
	require.False(t, ok)
}

func TestAncestorAtDepthAndIsAncestor(t *testing.T) {
	t.Parallel()

	flat := sampleFlat()

	id, ok := AncestorAtDepth(flat, "e", 0)
	require.True(t, ok)
	assert.Equal(t, "b", id)
	id, ok = AncestorAtDepth(flat, "e", 1)
	require.True(t, ok)
	assert.Equal(t, "d", id)
	id, ok = AncestorAtDepth(flat, "e", 2)
	require.True(t, ok)
	assert.Equal(t, "e", id)

	assert.True(t, IsAncestor(flat, "b", "e"))
	assert.True(t, IsAncestor(flat, "e", "e"))
	assert.False(t, IsAncestor(flat, "a", "e"))
}

func TestVisible_SkipsCollapsedDescendants(t *testing.T) {
	t.Parallel()

	tree := Build(sampleFlat())
	rows := Visible(tree, map[string]bool{"d": true})

	var got []string
	for _, r := range rows {
		got = append(got, r.Item.ID)
	}
	require.Equal(t, []string{"b", "c", "d", "a"}, got)
	require.True(t, rows[2].Collapsed)
	require.True(t, rows[2].HasChildren)
	require.Equal(t, 1, rows[2].Depth)
}
