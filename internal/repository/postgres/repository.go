package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BloggingApp/journal-service/internal/config"
	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const MAX_LIMIT = 100

var ErrFieldsNotAllowedToUpdate = errors.New("fields not allowed to update")

//go:embed schema.sql
var schema string

func maxLimit(limit *int) {
	if *limit <= 0 || *limit > MAX_LIMIT {
		*limit = MAX_LIMIT
	}
}

// collect scans every row with scan. It always returns a non-nil slice on
// success and closes rows.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*T, error) {
		return scan(row)
	})
}

// updateStatement builds "UPDATE table SET a = $1, b = $2" over the columns
// of updates in name order. Columns outside allowed fail the whole update.
func updateStatement(table string, allowed map[string]struct{}, updates map[string]interface{}) (string, []interface{}, error) {
	columns := make([]string, 0, len(updates))
	for column := range updates {
		if _, ok := allowed[column]; !ok {
			return "", nil, ErrFieldsNotAllowedToUpdate
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	var b strings.Builder
	b.WriteString("UPDATE " + table + " SET ")
	args := make([]interface{}, 0, len(columns)+1)
	for i, column := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		args = append(args, updates[column])
		fmt.Fprintf(&b, "%s = $%d", column, len(args))
	}

	return b.String(), args, nil
}

type Post interface {
	Create(ctx context.Context, post model.Post) (*model.Post, error)
	FindByID(ctx context.Context, id int64) (*model.Post, error)
	FindPublished(ctx context.Context, limit int) ([]*model.Post, error)
	FindAuthorPosts(ctx context.Context, authorID uuid.UUID, includeDrafts bool) ([]*model.Post, error)
	Update(ctx context.Context, post model.Post) (*model.Post, error)
	Delete(ctx context.Context, id int64) error
}

type Comment interface {
	Create(ctx context.Context, comment model.Comment) (*model.Comment, error)
	FindByID(ctx context.Context, id int64) (*model.Comment, error)
	FindPostComments(ctx context.Context, postID int64, limit int) ([]*model.Comment, error)
	UpdateContent(ctx context.Context, id int64, content string, expectedUpdatedAt time.Time) (*model.Comment, error)
	Delete(ctx context.Context, id int64) error
}

type UserCache interface {
	Create(ctx context.Context, cachedUser model.CachedUser) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.CachedUser, error)
}

type PostgresRepository struct {
	Post
	Comment
	UserCache
}

func New(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		Post:      newPostRepo(db),
		Comment:   newCommentRepo(db),
		UserCache: newUserCacheRepo(db),
	}
}

func DB(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.SSLMode,
	)
	return pgxpool.New(ctx, dsn)
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
