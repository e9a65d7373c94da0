// Package client talks to the journal-service HTTP API on behalf of
// journalctl.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BloggingApp/journal-service/internal/composer"
	"github.com/BloggingApp/journal-service/internal/config"
	"github.com/BloggingApp/journal-service/internal/dto"
	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/BloggingApp/journal-service/internal/thread"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// ErrMalformedResponse is returned when a response does not match the
// expected shape.
var ErrMalformedResponse = errors.New("malformed response from journal-service")

// Comments implements composer.Store over the journal-service API.
type Comments struct {
	logger     *zap.Logger
	apiURL     string
	httpClient *http.Client
}

func New(logger *zap.Logger, cfg config.ClientConfig) *Comments {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Comments{
		logger:     logger,
		apiURL:     strings.TrimRight(cfg.APIURL, "/") + "/api/v1",
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ composer.Store = (*Comments)(nil)

func (c *Comments) CreateComment(ctx context.Context, actor *composer.Actor, postID int64, content string, replyID *int64) (*model.Comment, error) {
	input := dto.CreateCommentRequest{
		PostID:  postID,
		ReplyID: replyID,
		Content: content,
	}

	var comment model.Comment
	if err := c.do(ctx, actor, http.MethodPost, "/comments", input, http.StatusCreated, &comment); err != nil {
		return nil, err
	}
	if err := checkComment(&comment, postID); err != nil {
		return nil, err
	}

	return &comment, nil
}

func (c *Comments) ListCommentsByPost(ctx context.Context, actor *composer.Actor, postID int64) ([]*model.FullComment, error) {
	var resp dto.ThreadResponse
	if err := c.do(ctx, actor, http.MethodGet, fmt.Sprintf("/comments/%d", postID), nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	if resp.PostID != postID {
		return nil, fmt.Errorf("%w: thread of post(%d) returned for post(%d)", ErrMalformedResponse, resp.PostID, postID)
	}

	comments := thread.Flatten(resp.Threads)
	for _, comment := range comments {
		if comment == nil {
			return nil, fmt.Errorf("%w: null comment in thread", ErrMalformedResponse)
		}
		if err := checkComment(&comment.Comment, postID); err != nil {
			return nil, err
		}
	}

	return comments, nil
}

func (c *Comments) UpdateComment(ctx context.Context, actor *composer.Actor, postID int64, commentID int64, content string, updatedAt time.Time) (*model.Comment, error) {
	input := dto.EditCommentRequest{
		Content:   content,
		UpdatedAt: updatedAt,
	}

	var comment model.Comment
	if err := c.do(ctx, actor, http.MethodPatch, fmt.Sprintf("/comments/%d/%d", postID, commentID), input, http.StatusOK, &comment); err != nil {
		return nil, err
	}
	if err := checkComment(&comment, postID); err != nil {
		return nil, err
	}

	return &comment, nil
}

func (c *Comments) DeleteComment(ctx context.Context, actor *composer.Actor, postID int64, commentID int64) error {
	var resp dto.BasicResponse
	if err := c.do(ctx, actor, http.MethodDelete, fmt.Sprintf("/comments/%d/%d", postID, commentID), nil, http.StatusOK, &resp); err != nil {
		return err
	}
	if !resp.Ok {
		return fmt.Errorf("%w: delete was not acknowledged", ErrMalformedResponse)
	}

	return nil
}

// checkComment validates the fields every comment returned by the API must
// carry.
func checkComment(comment *model.Comment, postID int64) error {
	switch {
	case comment.ID == 0:
		return fmt.Errorf("%w: comment without id", ErrMalformedResponse)
	case comment.PostID != postID:
		return fmt.Errorf("%w: comment(%d) belongs to post(%d)", ErrMalformedResponse, comment.ID, comment.PostID)
	case comment.Content == "":
		return fmt.Errorf("%w: comment(%d) without content", ErrMalformedResponse, comment.ID)
	case comment.UpdatedAt.IsZero():
		return fmt.Errorf("%w: comment(%d) without updated_at", ErrMalformedResponse, comment.ID)
	}
	return nil
}

func (c *Comments) do(ctx context.Context, actor *composer.Actor, method string, endpoint string, input interface{}, wantStatus int, output interface{}) error {
	var body io.Reader
	if input != nil {
		inputJSON, err := json.Marshal(input)
		if err != nil {
			return err
		}
		body = bytes.NewReader(inputJSON)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+endpoint, body)
	if err != nil {
		c.logger.Sugar().Errorf("failed to create request to journal-service: %s", err.Error())
		return err
	}
	if input != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil && actor.AccessToken != "" {
		req.Header.Add("Authorization", "Bearer "+actor.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Sugar().Errorf("failed to send request to journal-service: %s", err.Error())
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Sugar().Errorf("failed to read response body from journal-service: %s", err.Error())
		return err
	}

	if resp.StatusCode != wantStatus {
		var basic dto.BasicResponse
		if err := json.Unmarshal(respBody, &basic); err != nil {
			c.logger.Sugar().Debugf("failed to decode error response from journal-service: %s", err.Error())
		}
		c.logger.Sugar().Debugf("ERROR from journal-service endpoint(%s), code(%d), details: %s", endpoint, resp.StatusCode, basic.Details)
		return statusError(resp.StatusCode, basic)
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedResponse, err.Error())
	}

	return nil
}

// statusError maps an API error status to the errors composer classifies.
func statusError(status int, basic dto.BasicResponse) error {
	switch status {
	case http.StatusBadRequest:
		field := basic.Field
		if field == "" {
			field = "content"
		}
		return &composer.ValidationError{Field: field, Message: basic.Details}
	case http.StatusUnauthorized:
		return composer.ErrUnauthenticated
	case http.StatusForbidden:
		return composer.ErrForbidden
	case http.StatusNotFound:
		return composer.ErrNotFound
	case http.StatusConflict:
		return composer.ErrConflict
	default:
		return fmt.Errorf("journal-service responded with status %d: %s", status, basic.Details)
	}
}
