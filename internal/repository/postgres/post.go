package postgres

import (
	"context"

	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postColumns = "p.id, p.author_id, p.title, p.content, p.image_url, p.published, p.created_at, p.updated_at"

type postRepo struct {
	db *pgxpool.Pool
}

func newPostRepo(db *pgxpool.Pool) Post {
	return &postRepo{
		db: db,
	}
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var post model.Post
	if err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Title,
		&post.Content,
		&post.ImageURL,
		&post.Published,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	return scanPost(r.db.QueryRow(
		ctx,
		`INSERT INTO posts AS p (author_id, title, content, image_url, published)
		VALUES($1, $2, $3, $4, $5)
		RETURNING `+postColumns,
		post.AuthorID,
		post.Title,
		post.Content,
		post.ImageURL,
		post.Published,
	))
}

func (r *postRepo) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	return scanPost(r.db.QueryRow(ctx, "SELECT "+postColumns+" FROM posts p WHERE p.id = $1", id))
}

func (r *postRepo) FindPublished(ctx context.Context, limit int) ([]*model.Post, error) {
	maxLimit(&limit)

	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+`
		FROM posts p
		WHERE p.published = TRUE
		ORDER BY p.created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanPost)
}

func (r *postRepo) FindAuthorPosts(ctx context.Context, authorID uuid.UUID, includeDrafts bool) ([]*model.Post, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+`
		FROM posts p
		WHERE p.author_id = $1 AND (p.published = TRUE OR $2)
		ORDER BY p.created_at DESC`,
		authorID,
		includeDrafts,
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanPost)
}

func (r *postRepo) Update(ctx context.Context, post model.Post) (*model.Post, error) {
	return scanPost(r.db.QueryRow(
		ctx,
		`UPDATE posts AS p SET title = $2, content = $3, image_url = $4, published = $5, updated_at = NOW()
		WHERE p.id = $1
		RETURNING `+postColumns,
		post.ID,
		post.Title,
		post.Content,
		post.ImageURL,
		post.Published,
	))
}

func (r *postRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
