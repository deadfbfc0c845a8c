package docs

import (
	"reflect"
	"testing"
)

func doc(slug string, order int) Document {
	return Document{Slug: slug, Title: TitleFromSlug(slug), Order: order}
}

func TestBuildNav_ParentWithChildren(t *testing.T) {
	documents := []Document{
		doc("guide", 1),
		doc("guide/setup", 1),
		doc("guide/advanced", 2),
	}
	nav := BuildNav(documents, SectionPrefix(""))
	if len(nav) != 1 {
		t.Fatalf("len(nav) = %d, want 1", len(nav))
	}
	root := nav[0]
	if root.Slug != "guide" || root.Title != "Guide" {
		t.Errorf("root = %+v", root)
	}
	if len(root.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(root.Children))
	}
	if root.Children[0].Slug != "guide/setup" || root.Children[1].Slug != "guide/advanced" {
		t.Errorf("children order = %v, %v", root.Children[0].Slug, root.Children[1].Slug)
	}
}

func TestBuildNav_SynthesizedParent(t *testing.T) {
	documents := []Document{
		doc("api/auth", 4),
		doc("api/errors", 7),
	}
	nav := BuildNav(documents, SectionPrefix(""))
	if len(nav) != 1 {
		t.Fatalf("len(nav) = %d, want 1", len(nav))
	}
	root := nav[0]
	if root.Slug != "api" || root.Title != "Api" {
		t.Errorf("synthesized parent = %+v", root)
	}
	// Order is borrowed from the first child after sorting.
	if root.Order != 4 {
		t.Errorf("order = %d, want 4", root.Order)
	}
	if len(root.Children) != 2 {
		t.Fatalf("children = %d", len(root.Children))
	}
}

func TestBuildNav_TopLevelSortedByOrder(t *testing.T) {
	documents := []Document{
		doc("reference", 9),
		doc("intro", 1),
		doc("guide", 5),
	}
	nav := BuildNav(documents, SectionPrefix(""))
	var slugs []string
	for _, n := range nav {
		slugs = append(slugs, n.Slug)
	}
	want := []string{"intro", "guide", "reference"}
	if !reflect.DeepEqual(slugs, want) {
		t.Errorf("top-level = %v, want %v", slugs, want)
	}
}

func TestBuildNav_TiesKeepEncounterOrder(t *testing.T) {
	documents := []Document{
		doc("beta", 1),
		doc("alpha", 1),
		doc("gamma", 1),
	}
	nav := BuildNav(documents, SectionPrefix(""))
	var slugs []string
	for _, n := range nav {
		slugs = append(slugs, n.Slug)
	}
	want := []string{"beta", "alpha", "gamma"}
	if !reflect.DeepEqual(slugs, want) {
		t.Errorf("tie order = %v, want %v", slugs, want)
	}
}

func TestBuildNav_SectionFilter(t *testing.T) {
	documents := []Document{
		doc("guide", 1),
		doc("guide/setup", 2),
		doc("api/auth", 1),
	}
	nav := BuildNav(documents, SectionPrefix("guide"))
	if len(nav) != 1 || nav[0].Slug != "guide" {
		t.Fatalf("nav = %+v", nav)
	}
	if len(nav[0].Children) != 1 || nav[0].Children[0].Slug != "guide/setup" {
		t.Errorf("children = %+v", nav[0].Children)
	}
}

func TestBuildNav_EmptyFilteredSet(t *testing.T) {
	documents := []Document{doc("guide", 1)}
	nav := BuildNav(documents, SectionPrefix("missing"))
	if len(nav) != 0 {
		t.Errorf("nav = %+v, want empty", nav)
	}
	if nav == nil {
		t.Log("nil is acceptable only if it encodes as []")
	}
}

// Building twice from the same input must yield structurally identical trees.
func TestBuildNav_Idempotent(t *testing.T) {
	documents := []Document{
		doc("guide", 2),
		doc("guide/setup", 1),
		doc("api/auth", 1),
		doc("intro", 0),
	}
	first := BuildNav(documents, SectionPrefix(""))
	second := BuildNav(documents, SectionPrefix(""))
	if !reflect.DeepEqual(first, second) {
		t.Errorf("trees differ:\n%+v\n%+v", first, second)
	}
}

func TestBuildNav_ParentSlugPrefixInvariant(t *testing.T) {
	documents := []Document{
		doc("guide", 1),
		doc("guide/setup", 1),
		doc("guide/advanced/tips", 2),
	}
	nav := BuildNav(documents, SectionPrefix(""))
	for _, node := range nav {
		for _, child := range node.Children {
			if len(child.Slug) <= len(node.Slug) || child.Slug[:len(node.Slug)+1] != node.Slug+"/" {
				t.Errorf("child %q not under parent %q", child.Slug, node.Slug)
			}
		}
	}
}
