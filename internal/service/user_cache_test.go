package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/BloggingApp/journal-service/internal/repository/postgres"
	"github.com/BloggingApp/journal-service/internal/repository/redisrepo"
)

func TestUserCacheService_Resolve(t *testing.T) {
	env := newTestEnv(t)
	cached := &model.CachedUser{ID: uuid.New(), Username: "cached"}
	stored := &model.CachedUser{ID: uuid.New(), Username: "stored"}
	missing := uuid.New()

	require.NoError(t, env.repo.Redis.Default.SetJSON(context.Background(), redisrepo.UserCacheKey(cached.ID.String()), cached, time.Hour))

	var asked []uuid.UUID
	env.users.FindByIDsFunc = func(ctx context.Context, ids []uuid.UUID) ([]*model.CachedUser, error) {
		asked = ids
		return []*model.CachedUser{stored}, nil
	}
	svc := newUserCacheService(env.logger, env.repo, nil)

	users, err := svc.Resolve(context.Background(), []uuid.UUID{cached.ID, stored.ID, missing, stored.ID})

	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{stored.ID, missing}, asked)
	assert.Len(t, users, 2)
	assert.Equal(t, "cached", users[cached.ID].Username)
	assert.Equal(t, "stored", users[stored.ID].Username)
	assert.NotContains(t, users, missing)
	assert.True(t, env.redis.Exists(redisrepo.UserCacheKey(stored.ID.String())))
}

func TestUserCacheService_Resolve_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.users.FindByIDsFunc = func(ctx context.Context, ids []uuid.UUID) ([]*model.CachedUser, error) {
		return nil, errors.New("connection refused")
	}
	svc := newUserCacheService(env.logger, env.repo, nil)

	_, err := svc.Resolve(context.Background(), []uuid.UUID{uuid.New()})

	assert.ErrorIs(t, err, ErrInternal)
}

func TestUserCacheService_CreateOrGet(t *testing.T) {
	userID := uuid.New()

	userService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/@me" || r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "details": "unauthorized"})
			return
		}
		_ = json.NewEncoder(w).Encode(model.CachedUser{ID: userID, Username: "alice", AvatarURL: "https://cdn/a.png"})
	}))
	defer userService.Close()

	viper.Set("user-service.api", userService.URL)
	t.Cleanup(func() { viper.Set("user-service.api", "") })

	tests := []struct {
		name    string
		id      uuid.UUID
		token   string
		wantErr error
	}{
		{name: "fetched on first sight", id: userID, token: "good-token"},
		{name: "rejected token", id: userID, token: "bad-token", wantErr: ErrUserNotFound},
		{name: "token for another user", id: uuid.New(), token: "good-token", wantErr: ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.users.FindByIDFunc = func(ctx context.Context, id uuid.UUID) (*model.CachedUser, error) {
				return nil, pgx.ErrNoRows
			}
			var created *model.CachedUser
			env.users.CreateFunc = func(ctx context.Context, user model.CachedUser) error {
				created = &user
				return nil
			}
			svc := newUserCacheService(env.logger, env.repo, nil)

			user, err := svc.CreateOrGet(context.Background(), tt.id, tt.token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, created)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", user.Username)
			require.NotNil(t, created)
			assert.False(t, created.JoinedAt.IsZero())
		})
	}
}

func TestUserCacheService_CreateOrGet_Known(t *testing.T) {
	env := newTestEnv(t)
	known := &model.CachedUser{ID: uuid.New(), Username: "known"}
	env.users.FindByIDFunc = func(ctx context.Context, id uuid.UUID) (*model.CachedUser, error) {
		return known, nil
	}
	svc := newUserCacheService(env.logger, env.repo, nil)

	user, err := svc.CreateOrGet(context.Background(), known.ID, "unused")

	require.NoError(t, err)
	assert.Equal(t, "known", user.Username)
}

func TestUserCacheService_HandleUserUpdate(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name        string
		body        string
		updateErr   error
		wantErr     error
		wantUpdates map[string]interface{}
	}{
		{
			name:        "valid update",
			body:        `{"user_id":"` + userID.String() + `","username":"alice2"}`,
			wantUpdates: map[string]interface{}{"username": "alice2"},
		},
		{name: "not json", body: `{`, wantErr: errMalformedUserUpdate},
		{name: "missing user id", body: `{"username":"x"}`, wantErr: errMalformedUserUpdate},
		{name: "invalid user id", body: `{"user_id":"nope"}`, wantErr: errMalformedUserUpdate},
		{
			name:      "disallowed field",
			body:      `{"user_id":"` + userID.String() + `","id":"x"}`,
			updateErr: postgres.ErrFieldsNotAllowedToUpdate,
			wantErr:   postgres.ErrFieldsNotAllowedToUpdate,
		},
		{name: "null username", body: `{"user_id":"` + userID.String() + `","username":null}`, wantErr: errMalformedUserUpdate},
		{name: "numeric bio", body: `{"user_id":"` + userID.String() + `","bio":42}`, wantErr: errMalformedUserUpdate},
		{
			name:      "value rejected by postgres",
			body:      `{"user_id":"` + userID.String() + `","username":""}`,
			updateErr: &pgconn.PgError{Code: "23514", Message: "check constraint violated"},
			wantErr:   errMalformedUserUpdate,
		},
		{
			name:      "store failure",
			body:      `{"user_id":"` + userID.String() + `","bio":"hi"}`,
			updateErr: errors.New("connection refused"),
			wantErr:   ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			var gotUpdates map[string]interface{}
			env.users.UpdateFunc = func(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
				assert.Equal(t, userID, id)
				gotUpdates = updates
				return tt.updateErr
			}
			require.NoError(t, env.redis.Set(redisrepo.UserCacheKey(userID.String()), "{}"))
			svc := newUserCacheService(env.logger, env.repo, nil)

			err := svc.handleUserUpdate(context.Background(), []byte(tt.body))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUpdates, gotUpdates)
			assert.False(t, env.redis.Exists(redisrepo.UserCacheKey(userID.String())))
		})
	}
}

type ackResult struct {
	acked   bool
	requeue bool
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	results map[uint64]ackResult
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results[tag] = ackResult{acked: true}
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results[tag] = ackResult{requeue: requeue}
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type fakeConsumer struct {
	deliveries chan amqp.Delivery
}

func (c *fakeConsumer) Consume(queue string) (<-chan amqp.Delivery, error) {
	return c.deliveries, nil
}

func TestUserCacheService_StartConsume(t *testing.T) {
	env := newTestEnv(t)
	env.users.UpdateFunc = func(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
		if _, ok := updates["bio"]; ok {
			return errors.New("connection refused")
		}
		return nil
	}
	ack := &fakeAcknowledger{results: make(map[uint64]ackResult)}
	consumer := &fakeConsumer{deliveries: make(chan amqp.Delivery, 4)}
	userID := uuid.New().String()

	consumer.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(`{"user_id":"` + userID + `","username":"a"}`)}
	consumer.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte(`garbage`)}
	consumer.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: []byte(`{"user_id":"` + userID + `","bio":"b"}`)}
	consumer.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 4, Body: []byte(`{"user_id":"` + userID + `","username":null}`)}
	close(consumer.deliveries)

	svc := newUserCacheService(env.logger, env.repo, consumer)
	svc.StartConsume(context.Background())

	assert.Equal(t, map[uint64]ackResult{
		1: {acked: true},
		2: {requeue: false},
		3: {requeue: true},
		4: {requeue: false},
	}, ack.results)
}
