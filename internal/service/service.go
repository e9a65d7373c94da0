package service

import (
	"context"
	"mime/multipart"

	"github.com/BloggingApp/journal-service/internal/config"
	"github.com/BloggingApp/journal-service/internal/dto"
	"github.com/BloggingApp/journal-service/internal/metrics"
	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/BloggingApp/journal-service/internal/rabbitmq"
	"github.com/BloggingApp/journal-service/internal/repository"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	DEFAULT_POSTS_AMOUNT   = 50
	DEFAULT_COMMENTS_LIMIT = config.DefaultCommentsFetchLimit
)

type Post interface {
	Create(ctx context.Context, author *model.CachedUser, req dto.CreatePostRequest) (*model.Post, error)
	FindByID(ctx context.Context, id int64, viewerID *uuid.UUID) (*model.FullPost, error)
	FindPublished(ctx context.Context, amount int) ([]*model.FullPost, error)
	FindAuthorPosts(ctx context.Context, authorID uuid.UUID, includeDrafts bool) ([]*model.FullPost, error)
	Edit(ctx context.Context, author *model.CachedUser, postID int64, req dto.EditPostRequest) (*model.Post, error)
	Delete(ctx context.Context, author *model.CachedUser, postID int64) error
	UploadImage(ctx context.Context, file multipart.File, fileHeader *multipart.FileHeader) (string, error)
}

type Comment interface {
	Create(ctx context.Context, author *model.CachedUser, req dto.CreateCommentRequest) (*model.Comment, error)
	GetThread(ctx context.Context, postID int64, viewerID *uuid.UUID) (*dto.ThreadResponse, error)
	Edit(ctx context.Context, author *model.CachedUser, postID int64, commentID int64, req dto.EditCommentRequest) (*model.Comment, error)
	Delete(ctx context.Context, author *model.CachedUser, postID int64, commentID int64) error
}

type UserCache interface {
	CreateOrGet(ctx context.Context, id uuid.UUID, accessToken string) (*model.CachedUser, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error)
	Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.CachedUser, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	StartConsume(ctx context.Context)
}

type Service struct {
	Post
	Comment
	UserCache
}

func New(logger *zap.Logger, repo *repository.Repository, mq *rabbitmq.MQConn, m *metrics.Metrics) *Service {
	userCache := newUserCacheService(logger, repo, mq)
	return &Service{
		Post:      newPostService(logger, repo, userCache, mq),
		Comment:   newCommentService(logger, repo, userCache, mq, m, viper.GetInt("comments.fetch-limit")),
		UserCache: userCache,
	}
}

func (s *Service) StartConsumeAll(ctx context.Context) {
	go s.UserCache.StartConsume(ctx)
}

// authorsOf resolves the profiles of ids, logging and returning an empty map
// when the lookup fails so content can still be shown without authors.
func authorsOf(ctx context.Context, logger *zap.Logger, users UserCache, ids []uuid.UUID) map[uuid.UUID]*model.CachedUser {
	resolved, err := users.Resolve(ctx, ids)
	if err != nil {
		logger.Sugar().Errorf("failed to resolve %d authors: %s", len(ids), err.Error())
		return map[uuid.UUID]*model.CachedUser{}
	}
	return resolved
}

func authorOf(users map[uuid.UUID]*model.CachedUser, id uuid.UUID) *model.UserAuthor {
	if user, ok := users[id]; ok && user != nil {
		return user.Author()
	}
	return nil
}
