package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisUserStoreLifecycle(t *testing.T) {
	client, _ := newStoreClient(t)
	store := NewRedisUserStore(client)
	ctx := context.Background()

	user := &User{ID: uuid.New(), Email: "ada@example.com", Username: "ada", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Create(ctx, user))

	byEmail, err := store.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	exists, err := store.UsernameExists(ctx, "ada")
	require.NoError(t, err)
	assert.True(t, exists)

	byEmail.EmailVerified = true
	require.NoError(t, store.Update(ctx, byEmail))
	byID, err := store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, byID.EmailVerified)
}

func TestRedisUserStoreUniqueness(t *testing.T) {
	client, mr := newStoreClient(t)
	store := NewRedisUserStore(client)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &User{ID: uuid.New(), Email: "ada@example.com", Username: "ada"}))

	err := store.Create(ctx, &User{ID: uuid.New(), Email: "ada@example.com", Username: "other"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.False(t, mr.Exists(usernameKey("other")))

	err = store.Create(ctx, &User{ID: uuid.New(), Email: "new@example.com", Username: "ada"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.False(t, mr.Exists(emailKey("new@example.com")))
}

func TestRedisUserStoreMissingUser(t *testing.T) {
	client, _ := newStoreClient(t)
	store := NewRedisUserStore(client)
	ctx := context.Background()

	_, err := store.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = store.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, store.Update(ctx, &User{ID: uuid.New()}), ErrUserNotFound)
}

func TestTokenStore(t *testing.T) {
	client, mr := newStoreClient(t)
	tokens := NewTokenStore(client)
	ctx := context.Background()
	userID := uuid.New()

	token, err := tokens.Issue(ctx, PurposePasswordReset, userID, time.Hour)
	require.NoError(t, err)

	_, err = tokens.Consume(ctx, PurposeVerifyEmail, token)
	assert.ErrorIs(t, err, ErrInvalidOneTimeKey, "purposes do not mix")

	got, err := tokens.Consume(ctx, PurposePasswordReset, token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = tokens.Consume(ctx, PurposePasswordReset, "")
	assert.ErrorIs(t, err, ErrInvalidOneTimeKey)

	require.NoError(t, tokens.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	require.NoError(t, tokens.Revoke(ctx, "jti-2", time.Now().Add(-time.Minute)))
	revoked, err := tokens.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = tokens.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = tokens.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
