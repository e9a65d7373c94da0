package postgres

import (
	"context"
	"strconv"

	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = "u.id, u.username, u.display_name, u.avatar_url, u.bio, u.joined_at"

var updatableUserFields = map[string]struct{}{
	"username":     {},
	"display_name": {},
	"avatar_url":   {},
	"bio":          {},
}

type userCacheRepo struct {
	db *pgxpool.Pool
}

func newUserCacheRepo(db *pgxpool.Pool) UserCache {
	return &userCacheRepo{
		db: db,
	}
}

func scanUser(row pgx.Row) (*model.CachedUser, error) {
	var user model.CachedUser
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.AvatarURL,
		&user.Bio,
		&user.JoinedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userCacheRepo) Create(ctx context.Context, cachedUser model.CachedUser) error {
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO cached_users(id, username, display_name, avatar_url, bio, joined_at)
		VALUES($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		cachedUser.ID,
		cachedUser.Username,
		cachedUser.DisplayName,
		cachedUser.AvatarURL,
		cachedUser.Bio,
		cachedUser.JoinedAt,
	)
	return err
}

func (r *userCacheRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	query, args, err := updateStatement("cached_users", updatableUserFields, updates)
	if err != nil {
		return err
	}
	args = append(args, id)

	_, err = r.db.Exec(ctx, query+" WHERE id = $"+strconv.Itoa(len(args)), args...)
	return err
}

func (r *userCacheRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error) {
	return scanUser(r.db.QueryRow(ctx, "SELECT "+userColumns+" FROM cached_users u WHERE u.id = $1", id))
}

func (r *userCacheRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.CachedUser, error) {
	if len(ids) == 0 {
		return []*model.CachedUser{}, nil
	}

	rows, err := r.db.Query(ctx, "SELECT "+userColumns+" FROM cached_users u WHERE u.id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanUser)
}
