package model

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	ReplyID   *int64    `json:"reply_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsRoot reports whether the comment starts a thread.
func (c Comment) IsRoot() bool {
	return c.ReplyID == nil
}

// FullComment is a comment joined with its author's profile. Author is nil
// when the identity provider has no record of the author.
type FullComment struct {
	Comment Comment     `json:"comment"`
	Author  *UserAuthor `json:"author"`
}
