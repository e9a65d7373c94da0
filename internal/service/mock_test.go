package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/BloggingApp/journal-service/internal/repository"
	"github.com/BloggingApp/journal-service/internal/repository/postgres"
	"github.com/BloggingApp/journal-service/internal/repository/redisrepo"
)

// MockPostRepository is a mock implementation of postgres.Post
type MockPostRepository struct {
	CreateFunc          func(ctx context.Context, post model.Post) (*model.Post, error)
	FindByIDFunc        func(ctx context.Context, id int64) (*model.Post, error)
	FindPublishedFunc   func(ctx context.Context, limit int) ([]*model.Post, error)
	FindAuthorPostsFunc func(ctx context.Context, authorID uuid.UUID, includeDrafts bool) ([]*model.Post, error)
	UpdateFunc          func(ctx context.Context, post model.Post) (*model.Post, error)
	DeleteFunc          func(ctx context.Context, id int64) error
}

func (m *MockPostRepository) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, post)
	}
	post.ID = 1
	return &post, nil
}

func (m *MockPostRepository) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockPostRepository) FindPublished(ctx context.Context, limit int) ([]*model.Post, error) {
	if m.FindPublishedFunc != nil {
		return m.FindPublishedFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockPostRepository) FindAuthorPosts(ctx context.Context, authorID uuid.UUID, includeDrafts bool) ([]*model.Post, error) {
	if m.FindAuthorPostsFunc != nil {
		return m.FindAuthorPostsFunc(ctx, authorID, includeDrafts)
	}
	return nil, nil
}

func (m *MockPostRepository) Update(ctx context.Context, post model.Post) (*model.Post, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, post)
	}
	return &post, nil
}

func (m *MockPostRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockUserCacheRepository is a mock implementation of postgres.UserCache
type MockUserCacheRepository struct {
	CreateFunc    func(ctx context.Context, cachedUser model.CachedUser) error
	UpdateFunc    func(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	FindByIDFunc  func(ctx context.Context, id uuid.UUID) (*model.CachedUser, error)
	FindByIDsFunc func(ctx context.Context, ids []uuid.UUID) ([]*model.CachedUser, error)
}

func (m *MockUserCacheRepository) Create(ctx context.Context, cachedUser model.CachedUser) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, cachedUser)
	}
	return nil
}

func (m *MockUserCacheRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, updates)
	}
	return nil
}

func (m *MockUserCacheRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockUserCacheRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.CachedUser, error) {
	if m.FindByIDsFunc != nil {
		return m.FindByIDsFunc(ctx, ids)
	}
	return []*model.CachedUser{}, nil
}

// memCommentRepository is an in-memory postgres.Comment used to check
// behaviour across several calls.
type memCommentRepository struct {
	mu       sync.Mutex
	nextID   int64
	comments []*model.Comment
	finds    int
	failWith error
}

func (r *memCommentRepository) Create(ctx context.Context, comment model.Comment) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.nextID++
	now := time.Now().UTC().Truncate(time.Microsecond)
	comment.ID = r.nextID
	comment.CreatedAt = now
	comment.UpdatedAt = now
	stored := comment
	r.comments = append(r.comments, &stored)
	out := stored
	return &out, nil
}

func (r *memCommentRepository) FindByID(ctx context.Context, id int64) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.comments {
		if c.ID == id {
			out := *c
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memCommentRepository) FindPostComments(ctx context.Context, postID int64, limit int) ([]*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := []*model.Comment{}
	for _, c := range r.comments {
		if c.PostID == postID && len(out) < limit {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memCommentRepository) UpdateContent(ctx context.Context, id int64, content string, expectedUpdatedAt time.Time) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.comments {
		if c.ID != id {
			continue
		}
		if !c.UpdatedAt.Equal(expectedUpdatedAt) {
			return nil, pgx.ErrNoRows
		}
		c.Content = content
		c.UpdatedAt = c.UpdatedAt.Add(time.Second)
		out := *c
		return &out, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memCommentRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.comments {
		if c.ID == id {
			r.comments = append(r.comments[:i], r.comments[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memCommentRepository) seed(comments ...model.Comment) {
	for _, c := range comments {
		cp := c
		if cp.ID > r.nextID {
			r.nextID = cp.ID
		}
		r.comments = append(r.comments, &cp)
	}
}

type publishedMsg struct {
	queue string
	value interface{}
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []publishedMsg
	err  error
}

func (p *fakePublisher) PublishJSON(ctx context.Context, queue string, v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, publishedMsg{queue: queue, value: v})
	return p.err
}

type testEnv struct {
	repo     *repository.Repository
	posts    *MockPostRepository
	comments *memCommentRepository
	users    *MockUserCacheRepository
	redis    *miniredis.Miniredis
	logger   *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rdb.Close() })

	env := &testEnv{
		posts:    &MockPostRepository{},
		comments: &memCommentRepository{},
		users:    &MockUserCacheRepository{},
		redis:    s,
		logger:   zap.NewNop(),
	}
	env.repo = &repository.Repository{
		Postgres: &postgres.PostgresRepository{
			Post:      env.posts,
			Comment:   env.comments,
			UserCache: env.users,
		},
		Redis: redisrepo.New(rdb),
	}
	return env
}
