package dto

import "time"

type CreateCommentRequest struct {
	PostID  int64  `json:"post_id" binding:"required"`
	ReplyID *int64 `json:"reply_id"`
	Content string `json:"content" binding:"required,min=1,max=255"`
}

type EditCommentRequest struct {
	Content   string    `json:"content" binding:"required,min=1,max=255"`
	UpdatedAt time.Time `json:"updated_at" binding:"required"`
}
