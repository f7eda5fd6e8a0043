package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/connecthq/connect/internal/cache"
)

const sessionKeyPrefix = "auth:sessions:user:"

// SessionCache maps a user id to the single currently valid refresh token.
// Presence and exact match of the stored value is what makes a refresh token
// live; minting overwrites and logout deletes. There is no blacklist.
type SessionCache struct {
	store cache.Store
}

// NewSessionCache wraps the shared cache store in the session keyspace.
func NewSessionCache(store cache.Store) (*SessionCache, error) {
	if store == nil {
		return nil, errors.New("session cache: store is required")
	}
	return &SessionCache{store: store}, nil
}

// Put records token as the only live refresh token for userID, overwriting
// any previous entry. TTL matches the token's own expiry window.
func (c *SessionCache) Put(ctx context.Context, userID, token string, ttl time.Duration) error {
	key := sessionKey(userID)
	if key == "" {
		return errors.New("session cache: user id is required")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("session cache: token is required")
	}
	return c.store.Set(ctx, key, []byte(token), ttl)
}

// Lookup returns the live refresh token for userID, if any.
func (c *SessionCache) Lookup(ctx context.Context, userID string) (string, bool, error) {
	key := sessionKey(userID)
	if key == "" {
		return "", false, nil
	}

	data, found, err := c.store.Get(ctx, key)
	if err != nil || !found {
		return "", false, err
	}
	return string(data), true, nil
}

// Drop removes the session entry for userID. Dropping an absent entry is
// not an error.
func (c *SessionCache) Drop(ctx context.Context, userID string) error {
	key := sessionKey(userID)
	if key == "" {
		return nil
	}
	return c.store.Delete(ctx, key)
}

func sessionKey(userID string) string {
	id := strings.TrimSpace(userID)
	if id == "" {
		return ""
	}
	return sessionKeyPrefix + id
}
