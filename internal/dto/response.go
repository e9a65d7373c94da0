package dto

import (
	"time"

	"github.com/BloggingApp/journal-service/internal/model"
)

// BasicResponse is the envelope for every response that carries no entity.
// Field is set only when Details describes an invalid request field.
type BasicResponse struct {
	Ok        bool      `json:"ok"`
	Details   string    `json:"details"`
	Field     string    `json:"field,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBasicResponse(ok bool, details string) BasicResponse {
	return BasicResponse{
		Ok:        ok,
		Details:   details,
		Timestamp: time.Now(),
	}
}

func NewErrorResponse(err error) BasicResponse {
	resp := NewBasicResponse(false, err.Error())
	resp.Field = model.ValidationField(err)
	return resp
}
