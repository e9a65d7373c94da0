package handler

import (
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/BloggingApp/journal-service/internal/dto"
	"github.com/BloggingApp/journal-service/internal/metrics"
	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/BloggingApp/journal-service/internal/service"
)

const (
	testAccessSecret = "test-access-secret"
	testClientOrigin = "http://journal.test"
)

// MockCommentService is a mock implementation of service.Comment
type MockCommentService struct {
	CreateFunc    func(ctx context.Context, author *model.CachedUser, req dto.CreateCommentRequest) (*model.Comment, error)
	GetThreadFunc func(ctx context.Context, postID int64, viewerID *uuid.UUID) (*dto.ThreadResponse, error)
	EditFunc      func(ctx context.Context, author *model.CachedUser, postID int64, commentID int64, req dto.EditCommentRequest) (*model.Comment, error)
	DeleteFunc    func(ctx context.Context, author *model.CachedUser, postID int64, commentID int64) error
}

func (m *MockCommentService) Create(ctx context.Context, author *model.CachedUser, req dto.CreateCommentRequest) (*model.Comment, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, author, req)
	}
	return &model.Comment{ID: 1, PostID: req.PostID, AuthorID: author.ID, Content: req.Content}, nil
}

func (m *MockCommentService) GetThread(ctx context.Context, postID int64, viewerID *uuid.UUID) (*dto.ThreadResponse, error) {
	if m.GetThreadFunc != nil {
		return m.GetThreadFunc(ctx, postID, viewerID)
	}
	return &dto.ThreadResponse{PostID: postID}, nil
}

func (m *MockCommentService) Edit(ctx context.Context, author *model.CachedUser, postID int64, commentID int64, req dto.EditCommentRequest) (*model.Comment, error) {
	if m.EditFunc != nil {
		return m.EditFunc(ctx, author, postID, commentID, req)
	}
	return &model.Comment{ID: commentID, PostID: postID, AuthorID: author.ID, Content: req.Content}, nil
}

func (m *MockCommentService) Delete(ctx context.Context, author *model.CachedUser, postID int64, commentID int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, author, postID, commentID)
	}
	return nil
}

// MockPostService is a mock implementation of service.Post
type MockPostService struct {
	CreateFunc          func(ctx context.Context, author *model.CachedUser, req dto.CreatePostRequest) (*model.Post, error)
	FindByIDFunc        func(ctx context.Context, id int64, viewerID *uuid.UUID) (*model.FullPost, error)
	FindPublishedFunc   func(ctx context.Context, amount int) ([]*model.FullPost, error)
	FindAuthorPostsFunc func(ctx context.Context, authorID uuid.UUID, includeDrafts bool) ([]*model.FullPost, error)
	EditFunc            func(ctx context.Context, author *model.CachedUser, postID int64, req dto.EditPostRequest) (*model.Post, error)
	DeleteFunc          func(ctx context.Context, author *model.CachedUser, postID int64) error
	UploadImageFunc     func(ctx context.Context, file multipart.File, fileHeader *multipart.FileHeader) (string, error)
}

func (m *MockPostService) Create(ctx context.Context, author *model.CachedUser, req dto.CreatePostRequest) (*model.Post, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, author, req)
	}
	return &model.Post{ID: 1, AuthorID: author.ID, Title: req.Title}, nil
}

func (m *MockPostService) FindByID(ctx context.Context, id int64, viewerID *uuid.UUID) (*model.FullPost, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id, viewerID)
	}
	return &model.FullPost{Post: model.Post{ID: id}}, nil
}

func (m *MockPostService) FindPublished(ctx context.Context, amount int) ([]*model.FullPost, error) {
	if m.FindPublishedFunc != nil {
		return m.FindPublishedFunc(ctx, amount)
	}
	return []*model.FullPost{}, nil
}

func (m *MockPostService) FindAuthorPosts(ctx context.Context, authorID uuid.UUID, includeDrafts bool) ([]*model.FullPost, error) {
	if m.FindAuthorPostsFunc != nil {
		return m.FindAuthorPostsFunc(ctx, authorID, includeDrafts)
	}
	return []*model.FullPost{}, nil
}

func (m *MockPostService) Edit(ctx context.Context, author *model.CachedUser, postID int64, req dto.EditPostRequest) (*model.Post, error) {
	if m.EditFunc != nil {
		return m.EditFunc(ctx, author, postID, req)
	}
	return &model.Post{ID: postID, AuthorID: author.ID}, nil
}

func (m *MockPostService) Delete(ctx context.Context, author *model.CachedUser, postID int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, author, postID)
	}
	return nil
}

func (m *MockPostService) UploadImage(ctx context.Context, file multipart.File, fileHeader *multipart.FileHeader) (string, error) {
	if m.UploadImageFunc != nil {
		return m.UploadImageFunc(ctx, file, fileHeader)
	}
	return "https://cdn/" + fileHeader.Filename, nil
}

// MockUserCacheService is a mock implementation of service.UserCache
type MockUserCacheService struct {
	CreateOrGetFunc func(ctx context.Context, id uuid.UUID, accessToken string) (*model.CachedUser, error)
}

func (m *MockUserCacheService) CreateOrGet(ctx context.Context, id uuid.UUID, accessToken string) (*model.CachedUser, error) {
	if m.CreateOrGetFunc != nil {
		return m.CreateOrGetFunc(ctx, id, accessToken)
	}
	return &model.CachedUser{ID: id, Username: "user"}, nil
}

func (m *MockUserCacheService) FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error) {
	return &model.CachedUser{ID: id}, nil
}

func (m *MockUserCacheService) Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.CachedUser, error) {
	return map[uuid.UUID]*model.CachedUser{}, nil
}

func (m *MockUserCacheService) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

func (m *MockUserCacheService) StartConsume(ctx context.Context) {}

type testServer struct {
	router   *gin.Engine
	posts    *MockPostService
	comments *MockCommentService
	users    *MockUserCacheService
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	t.Setenv("ACCESS_SECRET", testAccessSecret)
	viper.Set("client.origin", testClientOrigin)
	t.Cleanup(func() { viper.Set("client.origin", "") })

	ts := &testServer{
		posts:    &MockPostService{},
		comments: &MockCommentService{},
		users:    &MockUserCacheService{},
	}
	services := &service.Service{
		Post:      ts.posts,
		Comment:   ts.comments,
		UserCache: ts.users,
	}
	ts.router = New(services, metrics.NewWithRegistry(prometheus.NewRegistry())).InitRoutes()
	return ts
}

func accessToken(t *testing.T, userID uuid.UUID) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testAccessSecret))
	require.NoError(t, err)
	return signed
}
