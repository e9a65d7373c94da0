package service

import (
	"context"
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/BloggingApp/journal-service/internal/dto"
	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/BloggingApp/journal-service/internal/rabbitmq"
	"github.com/BloggingApp/journal-service/internal/repository"
	"github.com/BloggingApp/journal-service/internal/repository/redisrepo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	postCacheTTL   = time.Hour
	missingPostTTL = time.Minute
)

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type postService struct {
	logger    *zap.Logger
	repo      *repository.Repository
	users     UserCache
	publisher rabbitmq.Publisher
	sanitizer *bluemonday.Policy
	cdn       *cdnClient
}

func newPostService(logger *zap.Logger, repo *repository.Repository, users UserCache, publisher rabbitmq.Publisher) *postService {
	return &postService{
		logger:    logger,
		repo:      repo,
		users:     users,
		publisher: publisher,
		sanitizer: bluemonday.UGCPolicy(),
		cdn:       newCDNClient(logger),
	}
}

func (s *postService) Create(ctx context.Context, author *model.CachedUser, req dto.CreatePostRequest) (*model.Post, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}
	if err := model.ValidatePostTitle(req.Title); err != nil {
		return nil, err
	}

	post := model.Post{
		AuthorID:  author.ID,
		Title:     req.Title,
		Content:   s.sanitizer.Sanitize(req.Content),
		ImageURL:  req.ImageURL,
		Published: req.Published,
	}

	createdPost, err := s.repo.Postgres.Post.Create(ctx, post)
	if err != nil {
		s.logger.Sugar().Errorf("failed to create user(%s) post: %s", author.ID.String(), err.Error())
		return nil, ErrInternal
	}

	// Ids are sequential, so an earlier lookup may have cached this id as missing.
	if err := s.repo.Redis.Default.Del(ctx, redisrepo.PostKey(createdPost.ID)); err != nil {
		s.logger.Sugar().Errorf("failed to clear post(%d) keys in redis: %s", createdPost.ID, err.Error())
	}

	if createdPost.Published {
		s.publishPostCreated(ctx, createdPost)
	}

	return createdPost, nil
}

func (s *postService) publishPostCreated(ctx context.Context, post *model.Post) {
	if s.publisher == nil {
		return
	}

	msg := dto.MQPostCreatedMsg{
		PostID:    post.ID,
		UserID:    post.AuthorID,
		PostTitle: post.Title,
		CreatedAt: post.CreatedAt,
	}
	if err := s.publisher.PublishJSON(ctx, rabbitmq.POST_CREATED_QUEUE, msg); err != nil {
		s.logger.Sugar().Errorf("failed to publish post(%d) created message: %s", post.ID, err.Error())
	}
}

// findPost loads a post through the redis cache. Missing posts are cached as
// null for missingPostTTL so repeated lookups do not reach postgres.
func findPost(ctx context.Context, logger *zap.Logger, repo *repository.Repository, id int64) (*model.Post, error) {
	key := redisrepo.PostKey(id)

	post, err := redisrepo.Get[model.Post](repo.Redis.Default, ctx, key)
	switch {
	case err == nil && post == nil:
		return nil, ErrPostNotFound
	case err == nil:
		return post, nil
	case !errors.Is(err, redis.Nil):
		logger.Sugar().Warnf("failed to get post(%d) from redis: %s", id, err.Error())
	}

	post, err = repo.Postgres.Post.FindByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		post, err = nil, nil
	}
	if err != nil {
		logger.Sugar().Errorf("failed to find post(%d) in postgres: %s", id, err.Error())
		return nil, ErrInternal
	}

	ttl := postCacheTTL
	if post == nil {
		ttl = missingPostTTL
	}
	if err := repo.Redis.Default.SetJSON(ctx, key, post, ttl); err != nil {
		logger.Sugar().Errorf("failed to set post(%d) in redis: %s", id, err.Error())
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *postService) FindByID(ctx context.Context, id int64, viewerID *uuid.UUID) (*model.FullPost, error) {
	post, err := findPost(ctx, s.logger, s.repo, id)
	if err != nil {
		return nil, err
	}

	if !post.VisibleTo(viewerID) {
		return nil, ErrPostNotFound
	}

	authors := authorsOf(ctx, s.logger, s.users, []uuid.UUID{post.AuthorID})

	return &model.FullPost{
		Post:   *post,
		Author: authorOf(authors, post.AuthorID),
	}, nil
}

func (s *postService) FindPublished(ctx context.Context, amount int) ([]*model.FullPost, error) {
	if amount <= 0 {
		amount = DEFAULT_POSTS_AMOUNT
	}

	posts, err := s.repo.Postgres.Post.FindPublished(ctx, amount)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find published posts from postgres: %s", err.Error())
		return nil, ErrInternal
	}

	return s.withAuthors(ctx, posts), nil
}

func (s *postService) FindAuthorPosts(ctx context.Context, authorID uuid.UUID, includeDrafts bool) ([]*model.FullPost, error) {
	posts, err := s.repo.Postgres.Post.FindAuthorPosts(ctx, authorID, includeDrafts)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find author(%s) posts from postgres: %s", authorID.String(), err.Error())
		return nil, ErrInternal
	}

	return s.withAuthors(ctx, posts), nil
}

func (s *postService) withAuthors(ctx context.Context, posts []*model.Post) []*model.FullPost {
	ids := make([]uuid.UUID, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.AuthorID)
	}
	authors := authorsOf(ctx, s.logger, s.users, ids)

	fullPosts := make([]*model.FullPost, 0, len(posts))
	for _, post := range posts {
		fullPosts = append(fullPosts, &model.FullPost{
			Post:   *post,
			Author: authorOf(authors, post.AuthorID),
		})
	}

	return fullPosts
}

func (s *postService) Edit(ctx context.Context, author *model.CachedUser, postID int64, req dto.EditPostRequest) (*model.Post, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}

	post, err := findPost(ctx, s.logger, s.repo, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != author.ID {
		return nil, ErrNotPostAuthor
	}

	wasPublished := post.Published
	if err := s.applyEdit(post, req); err != nil {
		return nil, err
	}

	updatedPost, err := s.repo.Postgres.Post.Update(ctx, *post)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to update post(%d): %s", postID, err.Error())
		return nil, ErrInternal
	}

	if err := s.repo.Redis.Default.Del(ctx, redisrepo.PostKey(postID)); err != nil {
		s.logger.Sugar().Errorf("failed to delete post(%d) from redis: %s", postID, err.Error())
	}

	if !wasPublished && updatedPost.Published {
		s.publishPostCreated(ctx, updatedPost)
	}

	return updatedPost, nil
}

// applyEdit copies the fields present in req onto post.
func (s *postService) applyEdit(post *model.Post, req dto.EditPostRequest) error {
	if req.Title != nil {
		if err := model.ValidatePostTitle(*req.Title); err != nil {
			return err
		}
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = s.sanitizer.Sanitize(*req.Content)
	}
	if req.ImageURL != nil {
		post.ImageURL = *req.ImageURL
	}
	if req.Published != nil {
		post.Published = *req.Published
	}
	return nil
}

func (s *postService) Delete(ctx context.Context, author *model.CachedUser, postID int64) error {
	if author == nil {
		return ErrUnauthenticated
	}

	post, err := findPost(ctx, s.logger, s.repo, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != author.ID {
		return ErrNotPostAuthor
	}

	if err := s.repo.Postgres.Post.Delete(ctx, postID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to delete post(%d): %s", postID, err.Error())
		return ErrInternal
	}

	if err := s.repo.Redis.Default.Del(ctx, redisrepo.PostKey(postID)); err != nil {
		s.logger.Sugar().Errorf("failed to delete post(%d) from redis: %s", postID, err.Error())
	}
	retireThreadCache(ctx, s.logger, s.repo, postID)

	return nil
}

func (s *postService) UploadImage(ctx context.Context, file multipart.File, fileHeader *multipart.FileHeader) (string, error) {
	if !strings.HasPrefix(fileHeader.Header.Get("Content-Type"), "image/") {
		return "", ErrFileMustBeImage
	}
	if !allowedImageExtensions[strings.ToLower(filepath.Ext(fileHeader.Filename))] {
		return "", ErrFileMustHaveAValidExtension
	}

	return s.cdn.UploadImage(ctx, postImagesPath, file, fileHeader)
}
