package service

import (
	"context"
	"errors"
	"time"

	"github.com/BloggingApp/journal-service/internal/dto"
	"github.com/BloggingApp/journal-service/internal/metrics"
	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/BloggingApp/journal-service/internal/rabbitmq"
	"github.com/BloggingApp/journal-service/internal/repository"
	"github.com/BloggingApp/journal-service/internal/repository/redisrepo"
	"github.com/BloggingApp/journal-service/internal/thread"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const threadCacheTTL = 10 * time.Minute

type commentService struct {
	logger     *zap.Logger
	repo       *repository.Repository
	users      UserCache
	publisher  rabbitmq.Publisher
	metrics    *metrics.Metrics
	fetchLimit int
}

func newCommentService(logger *zap.Logger, repo *repository.Repository, users UserCache, publisher rabbitmq.Publisher, m *metrics.Metrics, fetchLimit int) *commentService {
	if fetchLimit <= 0 {
		fetchLimit = DEFAULT_COMMENTS_LIMIT
	}
	return &commentService{
		logger:     logger,
		repo:       repo,
		users:      users,
		publisher:  publisher,
		metrics:    m,
		fetchLimit: fetchLimit,
	}
}

func (s *commentService) Create(ctx context.Context, author *model.CachedUser, req dto.CreateCommentRequest) (*model.Comment, error) {
	comment, err := s.create(ctx, author, req)
	s.metrics.RecordCommentMutation("create", err)
	return comment, err
}

func (s *commentService) create(ctx context.Context, author *model.CachedUser, req dto.CreateCommentRequest) (*model.Comment, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}
	if err := model.ValidateCommentContent(req.Content); err != nil {
		return nil, err
	}

	post, err := findPost(ctx, s.logger, s.repo, req.PostID)
	if err != nil {
		return nil, err
	}
	if !post.VisibleTo(&author.ID) {
		return nil, ErrPostNotFound
	}

	comment := model.Comment{
		PostID:   req.PostID,
		AuthorID: author.ID,
		Content:  req.Content,
	}

	if req.ReplyID != nil {
		rootID, err := s.replyRoot(ctx, req.PostID, *req.ReplyID)
		if err != nil {
			return nil, err
		}
		comment.ReplyID = &rootID
	}

	createdComment, err := s.repo.Postgres.Comment.Create(ctx, comment)
	if err != nil {
		s.logger.Sugar().Errorf("failed to create user(%s) comment on post(%d): %s", author.ID.String(), req.PostID, err.Error())
		return nil, ErrInternal
	}

	retireThreadCache(ctx, s.logger, s.repo, req.PostID)
	s.publishCommentCreated(ctx, createdComment)

	return createdComment, nil
}

// replyRoot returns the root comment a reply to targetID must attach to.
// Replying to a reply attaches to that reply's root, so threads never grow
// past two levels.
func (s *commentService) replyRoot(ctx context.Context, postID int64, targetID int64) (int64, error) {
	visited := make(map[int64]bool)
	id := targetID
	for {
		if visited[id] {
			s.logger.Sugar().Errorf("reply chain of comment(%d) loops at comment(%d)", targetID, id)
			return 0, ErrReplyTargetNotFound
		}
		visited[id] = true

		target, err := s.repo.Postgres.Comment.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ErrReplyTargetNotFound
			}
			s.logger.Sugar().Errorf("failed to find comment(%d): %s", id, err.Error())
			return 0, ErrInternal
		}
		if target.PostID != postID {
			return 0, ErrReplyTargetNotFound
		}
		if target.IsRoot() {
			return target.ID, nil
		}
		id = *target.ReplyID
	}
}

func (s *commentService) publishCommentCreated(ctx context.Context, comment *model.Comment) {
	if s.publisher == nil {
		return
	}

	msg := dto.MQCommentCreatedMsg{
		CommentID: comment.ID,
		PostID:    comment.PostID,
		ReplyID:   comment.ReplyID,
		UserID:    comment.AuthorID,
		CreatedAt: comment.CreatedAt,
	}
	if err := s.publisher.PublishJSON(ctx, rabbitmq.COMMENT_CREATED_QUEUE, msg); err != nil {
		s.logger.Sugar().Errorf("failed to publish comment(%d) created message: %s", comment.ID, err.Error())
	}
}

// retireThreadCache moves postID to a new cache generation. Reads that began
// earlier can only write back under the retired generation, which no one
// reads again.
func retireThreadCache(ctx context.Context, logger *zap.Logger, repo *repository.Repository, postID int64) {
	if _, err := repo.Redis.Default.Incr(ctx, redisrepo.PostCommentsVersionKey(postID), 0); err != nil {
		logger.Sugar().Errorf("failed to bump post(%d) comments version in redis: %s", postID, err.Error())
	}
}

func (s *commentService) postComments(ctx context.Context, postID int64) ([]*model.Comment, error) {
	version, err := s.repo.Redis.Default.Counter(ctx, redisrepo.PostCommentsVersionKey(postID))
	cacheable := err == nil
	if err != nil {
		s.logger.Sugar().Warnf("failed to get post(%d) comments version from redis: %s", postID, err.Error())
	}
	key := redisrepo.PostCommentsKey(postID, version)

	if cacheable {
		cached, err := redisrepo.GetMany[model.Comment](s.repo.Redis.Default, ctx, key)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Sugar().Errorf("failed to get post(%d) comments from redis: %s", postID, err.Error())
		}
	}

	comments, err := s.repo.Postgres.Comment.FindPostComments(ctx, postID, s.fetchLimit)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find post(%d) comments from postgres: %s", postID, err.Error())
		return nil, ErrInternal
	}

	if cacheable {
		if err := s.repo.Redis.Default.SetJSON(ctx, key, comments, threadCacheTTL); err != nil {
			s.logger.Sugar().Errorf("failed to set post(%d) comments in redis: %s", postID, err.Error())
		}
	}

	return comments, nil
}

func (s *commentService) GetThread(ctx context.Context, postID int64, viewerID *uuid.UUID) (*dto.ThreadResponse, error) {
	post, err := findPost(ctx, s.logger, s.repo, postID)
	if err != nil {
		return nil, err
	}
	if !post.VisibleTo(viewerID) {
		return nil, ErrPostNotFound
	}

	comments, err := s.postComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	authors := authorsOf(ctx, s.logger, s.users, ids)

	fullComments := make([]*model.FullComment, 0, len(comments))
	for _, c := range comments {
		fullComments = append(fullComments, &model.FullComment{
			Comment: *c,
			Author:  authorOf(authors, c.AuthorID),
		})
	}

	result := thread.Split(fullComments)
	if len(result.Orphans) > 0 {
		s.logger.Warn(
			"dropped orphaned replies from thread",
			zap.Int64("post_id", postID),
			zap.Int("orphans", len(result.Orphans)),
		)
		s.metrics.RecordOrphanedReplies(len(result.Orphans))
	}

	return &dto.ThreadResponse{
		PostID:  postID,
		Total:   len(fullComments) - len(result.Orphans),
		Threads: result.Nodes,
	}, nil
}

// ownComment loads commentID and checks that it belongs to postID and was
// written by author.
func (s *commentService) ownComment(ctx context.Context, author *model.CachedUser, postID int64, commentID int64) (*model.Comment, error) {
	comment, err := s.repo.Postgres.Comment.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		s.logger.Sugar().Errorf("failed to find comment(%d): %s", commentID, err.Error())
		return nil, ErrInternal
	}

	if comment.PostID != postID {
		return nil, ErrCommentNotFound
	}
	if comment.AuthorID != author.ID {
		return nil, ErrNotCommentAuthor
	}

	return comment, nil
}

func (s *commentService) Edit(ctx context.Context, author *model.CachedUser, postID int64, commentID int64, req dto.EditCommentRequest) (*model.Comment, error) {
	comment, err := s.edit(ctx, author, postID, commentID, req)
	s.metrics.RecordCommentMutation("edit", err)
	return comment, err
}

func (s *commentService) edit(ctx context.Context, author *model.CachedUser, postID int64, commentID int64, req dto.EditCommentRequest) (*model.Comment, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}
	if err := model.ValidateCommentContent(req.Content); err != nil {
		return nil, err
	}

	if _, err := s.ownComment(ctx, author, postID, commentID); err != nil {
		return nil, err
	}

	updatedComment, err := s.repo.Postgres.Comment.UpdateContent(ctx, commentID, req.Content, req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentConflict
		}
		s.logger.Sugar().Errorf("failed to update comment(%d): %s", commentID, err.Error())
		return nil, ErrInternal
	}

	retireThreadCache(ctx, s.logger, s.repo, postID)

	return updatedComment, nil
}

func (s *commentService) Delete(ctx context.Context, author *model.CachedUser, postID int64, commentID int64) error {
	err := s.delete(ctx, author, postID, commentID)
	s.metrics.RecordCommentMutation("delete", err)
	return err
}

func (s *commentService) delete(ctx context.Context, author *model.CachedUser, postID int64, commentID int64) error {
	if author == nil {
		return ErrUnauthenticated
	}

	if _, err := s.ownComment(ctx, author, postID, commentID); err != nil {
		return err
	}

	if err := s.repo.Postgres.Comment.Delete(ctx, commentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCommentNotFound
		}
		s.logger.Sugar().Errorf("failed to delete comment(%d): %s", commentID, err.Error())
		return ErrInternal
	}

	retireThreadCache(ctx, s.logger, s.repo, postID)

	return nil
}
