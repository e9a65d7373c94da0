package model

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID        int64     `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VisibleTo reports whether the post can be read by viewerID. Drafts are only
// visible to their author.
func (p Post) VisibleTo(viewerID *uuid.UUID) bool {
	if p.Published {
		return true
	}
	return viewerID != nil && *viewerID == p.AuthorID
}

type FullPost struct {
	Post   Post        `json:"post"`
	Author *UserAuthor `json:"author"`
}
