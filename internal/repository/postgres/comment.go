package postgres

import (
	"context"
	"time"

	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentColumns = "c.id, c.post_id, c.author_id, c.reply_id, c.content, c.created_at, c.updated_at"

type commentRepo struct {
	db *pgxpool.Pool
}

func newCommentRepo(db *pgxpool.Pool) Comment {
	return &commentRepo{
		db: db,
	}
}

func scanComment(row pgx.Row) (*model.Comment, error) {
	var comment model.Comment
	if err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.AuthorID,
		&comment.ReplyID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepo) Create(ctx context.Context, comment model.Comment) (*model.Comment, error) {
	return scanComment(r.db.QueryRow(
		ctx,
		`INSERT INTO comments AS c (post_id, author_id, reply_id, content)
		VALUES($1, $2, $3, $4)
		RETURNING `+commentColumns,
		comment.PostID,
		comment.AuthorID,
		comment.ReplyID,
		comment.Content,
	))
}

func (r *commentRepo) FindByID(ctx context.Context, id int64) (*model.Comment, error) {
	return scanComment(r.db.QueryRow(
		ctx,
		"SELECT "+commentColumns+" FROM comments c WHERE c.id = $1",
		id,
	))
}

func (r *commentRepo) FindPostComments(ctx context.Context, postID int64, limit int) ([]*model.Comment, error) {
	maxLimit(&limit)

	rows, err := r.db.Query(
		ctx,
		`SELECT `+commentColumns+`
		FROM comments c
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC
		LIMIT $2`,
		postID,
		limit,
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanComment)
}

// UpdateContent only applies when the stored updated_at still equals
// expectedUpdatedAt. A stale token yields pgx.ErrNoRows.
func (r *commentRepo) UpdateContent(ctx context.Context, id int64, content string, expectedUpdatedAt time.Time) (*model.Comment, error) {
	return scanComment(r.db.QueryRow(
		ctx,
		`UPDATE comments AS c SET content = $2, updated_at = NOW()
		WHERE c.id = $1 AND c.updated_at = $3
		RETURNING `+commentColumns,
		id,
		content,
		expectedUpdatedAt,
	))
}

func (r *commentRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
