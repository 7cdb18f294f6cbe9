package models

import "time"

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

type Post struct {
	ID        int         `json:"id"`
	Title     string      `json:"title"`
	Slug      string      `json:"slug"`
	Content   string      `json:"content"`
	AuthorID  *int        `json:"authorId,omitempty"`
	Author    *PublicUser `json:"author,omitempty"`
	Status    string      `json:"status"`
	Tags      []string    `json:"tags"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt *time.Time  `json:"updatedAt"`
	DeletedAt *time.Time  `json:"deletedAt"`
}

// Pagination describes the page window returned alongside a post listing.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}
