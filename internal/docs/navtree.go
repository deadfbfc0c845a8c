package docs

import (
	"sort"
	"strings"
)

// NavNode is one entry in the hierarchical navigation tree. A node with
// children has a slug that is a strict path prefix of every child's slug.
type NavNode struct {
	Title    string    `json:"title"`
	Slug     string    `json:"slug"`
	Order    int       `json:"order"`
	Icon     string    `json:"icon,omitempty"`
	Children []NavNode `json:"children,omitempty"`
}

// SectionPredicate classifies a slug as belonging to a section.
type SectionPredicate func(slug string) bool

// SectionPrefix returns a predicate matching slugs under the given prefix.
// An empty prefix matches everything.
func SectionPrefix(prefix string) SectionPredicate {
	prefix = strings.Trim(prefix, "/")
	return func(slug string) bool {
		if prefix == "" {
			return true
		}
		return slug == prefix || strings.HasPrefix(slug, prefix+"/")
	}
}

// BuildNav derives the navigation tree from a flat document list.
//
// Documents are filtered by section, grouped by their first slug segment,
// and each group renders as one top-level node: the document whose slug
// equals the group key becomes the parent, the rest become its children
// sorted by ascending order. Groups without an index document get a
// synthesized parent (title-cased segment, order borrowed from the first
// child). Ties keep encounter order. An empty filtered set yields an empty
// tree, not an error.
func BuildNav(documents []Document, section SectionPredicate) []NavNode {
	groups := make(map[string][]Document)
	var keys []string
	for _, doc := range documents {
		if doc.Slug == "" || (section != nil && !section(doc.Slug)) {
			continue
		}
		key := firstSegment(doc.Slug)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], doc)
	}

	nodes := make([]NavNode, 0, len(keys))
	for _, key := range keys {
		nodes = append(nodes, buildGroup(key, groups[key]))
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Order < nodes[j].Order
	})
	return nodes
}

// buildGroup assembles one top-level node from the documents sharing a first
// slug segment.
func buildGroup(key string, members []Document) NavNode {
	var parent *Document
	var children []NavNode
	for i := range members {
		if members[i].Slug == key && parent == nil {
			parent = &members[i]
			continue
		}
		children = append(children, NavNode{
			Title: members[i].Title,
			Slug:  members[i].Slug,
			Order: members[i].Order,
			Icon:  members[i].Icon,
		})
	}

	sort.SliceStable(children, func(i, j int) bool {
		return children[i].Order < children[j].Order
	})

	if parent != nil {
		return NavNode{
			Title:    parent.Title,
			Slug:     parent.Slug,
			Order:    parent.Order,
			Icon:     parent.Icon,
			Children: children,
		}
	}

	// No index document for this group: synthesize one so the section still
	// renders, borrowing the first child's order.
	node := NavNode{
		Title:    TitleFromSlug(key),
		Slug:     key,
		Children: children,
	}
	if len(children) > 0 {
		node.Order = children[0].Order
	}
	return node
}

func firstSegment(slug string) string {
	if i := strings.Index(slug, "/"); i >= 0 {
		return slug[:i]
	}
	return slug
}
