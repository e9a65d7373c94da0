package dto

import "github.com/BloggingApp/journal-service/internal/thread"

type ThreadResponse struct {
	PostID  int64          `json:"post_id"`
	Total   int            `json:"total"`
	Threads []*thread.Node `json:"threads"`
}
