// Package docs defines the document domain types and the navigation tree
// derived from them.
package docs

import (
	"strings"
	"time"

	"github.com/eastgate/lore/internal/frontmatter"
)

// Document is an immutable parsed Markdown file from the tracked repository.
// Updates replace the whole value, never mutate it in place.
type Document struct {
	Slug        string         `json:"slug"`
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Order       int            `json:"order"`
	Icon        string         `json:"icon,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	Body        string         `json:"body"`
	SHA         string         `json:"sha,omitempty"`
	FetchedAt   time.Time      `json:"fetched_at"`
}

// New builds a Document from a repository path and raw file content.
// basePath is the content prefix inside the repository; sha is the remote
// blob hash used as the content fingerprint.
func New(basePath, path, sha string, data []byte) Document {
	res := frontmatter.Parse(data)
	slug := SlugFromPath(basePath, path)

	title := res.Meta.Title
	if title == "" || title == frontmatter.DefaultTitle {
		title = TitleFromSlug(slug)
	}

	return Document{
		Slug:        slug,
		Path:        path,
		Title:       title,
		Description: res.Meta.Description,
		Order:       res.Meta.Order,
		Icon:        res.Meta.Icon,
		Tags:        res.Meta.Tags,
		Extra:       res.Meta.Extra,
		Body:        res.Body,
		SHA:         sha,
	}
}

// SlugFromPath derives the document slug: the path relative to basePath with
// the Markdown extension stripped, forward slashes throughout.
func SlugFromPath(basePath, path string) string {
	slug := strings.TrimPrefix(path, strings.Trim(basePath, "/"))
	slug = strings.Trim(slug, "/")
	slug = strings.TrimSuffix(slug, ".md")
	return slug
}

// PathFromSlug is the inverse of SlugFromPath for direct single-file fetches.
func PathFromSlug(basePath, slug string) string {
	base := strings.Trim(basePath, "/")
	if base == "" {
		return slug + ".md"
	}
	return base + "/" + slug + ".md"
}

// TitleFromSlug title-cases the final segment of a slug: "getting-started"
// becomes "Getting Started".
func TitleFromSlug(slug string) string {
	seg := slug
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		seg = slug[i+1:]
	}
	words := strings.FieldsFunc(seg, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return frontmatter.DefaultTitle
	}
	return strings.Join(words, " ")
}
