package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound indicates the bearer token is unknown or expired.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore issues and resolves opaque bearer tokens backed by Redis.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

type tokenPayload struct {
	UserID     int64    `json:"user_id"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Role       string   `json:"role"`
	Categories []string `json:"categories,omitempty"`
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue creates a new token bound to the principal.
func (ts *TokenStore) Issue(ctx context.Context, p Principal) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	payload := tokenPayload{
		UserID:     p.ID,
		Username:   p.Username,
		Email:      p.Email,
		Role:       p.Role,
		Categories: p.Categories,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if err := ts.client.Set(ctx, tokenKey(token), data, ts.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the principal bound to the token and refreshes its TTL.
func (ts *TokenStore) Resolve(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}
	data, err := ts.client.Get(ctx, tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	var payload tokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	_ = ts.client.Expire(ctx, tokenKey(token), ts.ttl).Err()
	return &Principal{
		ID:         payload.UserID,
		Username:   payload.Username,
		Email:      payload.Email,
		Role:       payload.Role,
		Categories: payload.Categories,
	}, nil
}

// Revoke deletes the token.
func (ts *TokenStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := ts.client.Del(ctx, tokenKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured token lifetime.
func (ts *TokenStore) TTL() time.Duration {
	return ts.ttl
}

func tokenKey(token string) string {
	return "token:" + token
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
