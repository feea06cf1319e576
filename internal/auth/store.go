package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UserStore persists user documents.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, user *User) error
}

// RedisUserStore keeps users as JSON documents with unique email and
// username indexes.
type RedisUserStore struct {
	client redis.UniversalClient
}

var _ UserStore = (*RedisUserStore)(nil)

func NewRedisUserStore(client redis.UniversalClient) *RedisUserStore {
	return &RedisUserStore{client: client}
}

func userKey(id uuid.UUID) string        { return "user:" + id.String() }
func emailKey(email string) string       { return "user:email:" + email }
func usernameKey(username string) string { return "user:username:" + username }

// Create claims the email and username, then writes the document.
func (s *RedisUserStore) Create(ctx context.Context, user *User) error {
	id := user.ID.String()

	ok, err := s.client.SetNX(ctx, emailKey(user.Email), id, 0).Result()
	if err != nil {
		return fmt.Errorf("claim email: %w", err)
	}
	if !ok {
		return ErrEmailTaken
	}

	ok, err = s.client.SetNX(ctx, usernameKey(user.Username), id, 0).Result()
	if err != nil || !ok {
		s.client.Del(ctx, emailKey(user.Email))
		if err != nil {
			return fmt.Errorf("claim username: %w", err)
		}
		return ErrUsernameTaken
	}

	data, err := json.Marshal(user)
	if err != nil {
		s.client.Del(ctx, emailKey(user.Email), usernameKey(user.Username))
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.client.Set(ctx, userKey(user.ID), data, 0).Err(); err != nil {
		s.client.Del(ctx, emailKey(user.Email), usernameKey(user.Username))
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

func (s *RedisUserStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

func (s *RedisUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	raw, err := s.client.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RedisUserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	n, err := s.client.Exists(ctx, usernameKey(username)).Result()
	if err != nil {
		return false, fmt.Errorf("lookup username: %w", err)
	}
	return n > 0, nil
}

// Update overwrites an existing document. Email and username are immutable.
func (s *RedisUserStore) Update(ctx context.Context, user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	ok, err := s.client.SetXX(ctx, userKey(user.ID), data, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

// Token purposes.
const (
	PurposeVerifyEmail   = "verify_email"
	PurposePasswordReset = "password_reset"
)

// TokenStore issues single-use tokens and tracks revoked JWT ids.
type TokenStore struct {
	client redis.UniversalClient
}

func NewTokenStore(client redis.UniversalClient) *TokenStore {
	return &TokenStore{client: client}
}

// Issue stores a random token that resolves to userID until ttl elapses.
func (s *TokenStore) Issue(ctx context.Context, purpose string, userID uuid.UUID, ttl time.Duration) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	if err := s.client.Set(ctx, oneTimeKey(purpose, token), userID.String(), ttl).Err(); err != nil {
		return "", fmt.Errorf("store %s token: %w", purpose, err)
	}
	return token, nil
}

// Consume resolves and deletes a token.
func (s *TokenStore) Consume(ctx context.Context, purpose, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrInvalidOneTimeKey
	}
	raw, err := s.client.GetDel(ctx, oneTimeKey(purpose, token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrInvalidOneTimeKey
		}
		return uuid.Nil, fmt.Errorf("consume %s token: %w", purpose, err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidOneTimeKey
	}
	return id, nil
}

// Revoke denies a JWT id until it would have expired anyway.
func (s *TokenStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, "auth:revoked:"+jti, 1, ttl).Err()
}

func (s *TokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, "auth:revoked:"+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func oneTimeKey(purpose, token string) string {
	return "auth:" + purpose + ":" + token
}
