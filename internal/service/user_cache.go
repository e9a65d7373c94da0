package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/BloggingApp/journal-service/internal/rabbitmq"
	"github.com/BloggingApp/journal-service/internal/repository"
	"github.com/BloggingApp/journal-service/internal/repository/postgres"
	"github.com/BloggingApp/journal-service/internal/repository/redisrepo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const userCacheTTL = time.Hour

type userCacheService struct {
	logger    *zap.Logger
	repo      *repository.Repository
	consumer  rabbitmq.Consumer
	directory *userDirectory
}

func newUserCacheService(logger *zap.Logger, repo *repository.Repository, consumer rabbitmq.Consumer) *userCacheService {
	return &userCacheService{
		logger:    logger,
		repo:      repo,
		consumer:  consumer,
		directory: newUserDirectory(logger),
	}
}

// CreateOrGet returns the known profile of id, or fetches it from the user
// service with the holder's token and remembers it.
func (s *userCacheService) CreateOrGet(ctx context.Context, id uuid.UUID, accessToken string) (*model.CachedUser, error) {
	known, err := s.FindByID(ctx, id)
	switch {
	case err == nil:
		return known, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	profile, err := s.directory.Me(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if profile.ID != id {
		s.logger.Sugar().Errorf("token of user(%s) resolved to user(%s)", id.String(), profile.ID.String())
		return nil, ErrUserNotFound
	}
	if profile.JoinedAt.IsZero() {
		profile.JoinedAt = time.Now().UTC()
	}

	if err := s.repo.Postgres.UserCache.Create(ctx, *profile); err != nil {
		s.logger.Sugar().Errorf("failed to remember user(%s): %s", id.String(), err.Error())
		return nil, ErrInternal
	}
	s.cacheUser(ctx, profile)

	return profile, nil
}

func (s *userCacheService) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if err := s.repo.Postgres.UserCache.Update(ctx, id, updates); err != nil {
		if errors.Is(err, postgres.ErrFieldsNotAllowedToUpdate) {
			return err
		}
		if rejectedByConstraint(err) {
			s.logger.Sugar().Errorf("cached user(%s) update rejected: %s", id.String(), err.Error())
			return fmt.Errorf("%w: %s", errMalformedUserUpdate, err.Error())
		}
		s.logger.Sugar().Errorf("failed to update cached user(%s): %s", id.String(), err.Error())
		return ErrInternal
	}

	if err := s.repo.Redis.Default.Del(ctx, redisrepo.UserCacheKey(id.String())); err != nil {
		s.logger.Sugar().Errorf("failed to delete cached user(%s) from redis: %s", id.String(), err.Error())
	}

	return nil
}

func (s *userCacheService) FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error) {
	if user := s.cachedProfile(ctx, id); user != nil {
		return user, nil
	}

	user, err := s.repo.Postgres.UserCache.FindByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		s.logger.Sugar().Errorf("failed to find cached user(%s) in postgres: %s", id.String(), err.Error())
		return nil, ErrInternal
	}

	s.cacheUser(ctx, user)
	return user, nil
}

// Resolve looks up the profiles of ids. Ids without a profile are absent from
// the returned map.
func (s *userCacheService) Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.CachedUser, error) {
	users := make(map[uuid.UUID]*model.CachedUser, len(ids))
	pending := make(map[uuid.UUID]struct{})

	for _, id := range ids {
		if _, ok := users[id]; ok {
			continue
		}
		if _, ok := pending[id]; ok {
			continue
		}
		if user := s.cachedProfile(ctx, id); user != nil {
			users[id] = user
			continue
		}
		pending[id] = struct{}{}
	}
	if len(pending) == 0 {
		return users, nil
	}

	misses := make([]uuid.UUID, 0, len(pending))
	for id := range pending {
		misses = append(misses, id)
	}
	found, err := s.repo.Postgres.UserCache.FindByIDs(ctx, misses)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find %d cached users in postgres: %s", len(misses), err.Error())
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	for _, user := range found {
		users[user.ID] = user
		s.cacheUser(ctx, user)
	}

	return users, nil
}

// cachedProfile reads a profile from redis. Cache failures are logged and
// treated as a miss.
func (s *userCacheService) cachedProfile(ctx context.Context, id uuid.UUID) *model.CachedUser {
	user, err := redisrepo.Get[model.CachedUser](s.repo.Redis.Default, ctx, redisrepo.UserCacheKey(id.String()))
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Sugar().Warnf("failed to get cached user(%s) from redis: %s", id.String(), err.Error())
	}
	return user
}

func (s *userCacheService) cacheUser(ctx context.Context, user *model.CachedUser) {
	if err := s.repo.Redis.Default.SetJSON(ctx, redisrepo.UserCacheKey(user.ID.String()), user, userCacheTTL); err != nil {
		s.logger.Sugar().Errorf("failed to set user(%s) in redis: %s", user.ID.String(), err.Error())
	}
}

func (s *userCacheService) StartConsume(ctx context.Context) {
	queue := rabbitmq.USER_INFO_UPDATED_QUEUE
	msgs, err := s.consumer.Consume(queue)
	if err != nil {
		s.logger.Sugar().Fatalf("failed to start consume updates from queue(%s): %s", queue, err.Error())
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if err := s.handleUserUpdate(ctx, msg.Body); err != nil {
				msg.Nack(false, errors.Is(err, ErrInternal))
				continue
			}
			msg.Ack(false)
		}
	}
}

var errMalformedUserUpdate = errors.New("malformed user update")

// handleUserUpdate applies one user-info-updated message. Malformed messages
// return errMalformedUserUpdate and must not be requeued.
func (s *userCacheService) handleUserUpdate(ctx context.Context, body []byte) error {
	userID, updates, err := parseUserUpdate(body)
	if err != nil {
		s.logger.Sugar().Errorf("dropping message from queue(%s): %s", rabbitmq.USER_INFO_UPDATED_QUEUE, err.Error())
		return err
	}
	return s.Update(ctx, userID, updates)
}

// rejectedByConstraint reports whether postgres refused the values themselves
// (data exception or integrity violation), which a retry cannot fix.
func rejectedByConstraint(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
}

// parseUserUpdate splits a message into the user id and the remaining fields.
func parseUserUpdate(body []byte) (uuid.UUID, map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return uuid.Nil, nil, fmt.Errorf("%w: %s", errMalformedUserUpdate, err.Error())
	}

	raw, ok := fields["user_id"].(string)
	if !ok {
		return uuid.Nil, nil, fmt.Errorf("%w: user_id is missing", errMalformedUserUpdate)
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("%w: user_id(%q) is not a uuid", errMalformedUserUpdate, raw)
	}
	delete(fields, "user_id")

	for name, value := range fields {
		if _, ok := value.(string); !ok {
			return uuid.Nil, nil, fmt.Errorf("%w: field %q must be a string, got %T", errMalformedUserUpdate, name, value)
		}
	}

	return userID, fields, nil
}
