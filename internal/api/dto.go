package api

import (
	"time"

	"github.com/eastgate/lore/internal/docs"
)

// DocListItem is a lightweight document representation for list responses.
type DocListItem struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Order       int       `json:"order"`
	Icon        string    `json:"icon,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	SHA         string    `json:"sha,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// DocListResponse wraps document listings.
type DocListResponse struct {
	Documents []DocListItem `json:"documents"`
	Total     int           `json:"total"`
}

// NavResponse wraps a navigation tree.
type NavResponse struct {
	Nav []docs.NavNode `json:"nav"`
}

func toListItem(d docs.Document) DocListItem {
	return DocListItem{
		Slug:        d.Slug,
		Title:       d.Title,
		Description: d.Description,
		Order:       d.Order,
		Icon:        d.Icon,
		Tags:        d.Tags,
		SHA:         d.SHA,
		FetchedAt:   d.FetchedAt,
	}
}
