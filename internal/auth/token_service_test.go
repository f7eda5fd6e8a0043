package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memItem struct {
	value     []byte
	expiresAt time.Time
}

// memStore is an in-memory cache.Store double with a controllable clock and
// an injectable write failure.
type memStore struct {
	mu      sync.Mutex
	items   map[string]memItem
	now     func() time.Time
	failSet error
}

func newMemStore(now func() time.Time) *memStore {
	if now == nil {
		now = time.Now
	}
	return &memStore{items: make(map[string]memItem), now: now}
}

func (s *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}

	expiry := time.Time{}
	if ttl > 0 {
		expiry = s.now().Add(ttl)
	}
	s.items[key] = memItem{value: append([]byte(nil), value...), expiresAt: expiry}
	return nil
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	if !item.expiresAt.IsZero() && s.now().After(item.expiresAt) {
		delete(s.items, key)
		return nil, false, nil
	}
	return item.value, true, nil
}

func (s *memStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.items, key)
	}
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func newTestTokenService(t *testing.T, store *memStore, now *time.Time) *TokenService {
	t.Helper()

	sessions, err := NewSessionCache(store)
	require.NoError(t, err)

	svc, err := NewTokenService(TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "connect-test",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    720 * time.Hour,
		Clock:         func() time.Time { return *now },
	}, sessions)
	require.NoError(t, err)

	return svc
}

func TestMintPairValidates(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newMemStore(func() time.Time { return now })
	svc := newTestTokenService(t, store, &now)

	pair, err := svc.MintPair(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	userID, err := svc.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)

	userID, err = svc.ValidateRefresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestRefreshRotationSupersedesOldToken(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newMemStore(func() time.Time { return now })
	svc := newTestTokenService(t, store, &now)

	first, err := svc.MintPair(context.Background(), "user-1")
	require.NoError(t, err)

	now = now.Add(time.Second)
	second, err := svc.MintPair(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The superseded token still verifies cryptographically but no longer
	// matches the single live session entry.
	_, err = svc.ValidateRefresh(context.Background(), first.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)

	userID, err := svc.ValidateRefresh(context.Background(), second.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestRevokeDropsSession(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newMemStore(func() time.Time { return now })
	svc := newTestTokenService(t, store, &now)

	pair, err := svc.MintPair(context.Background(), "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), "user-1"))

	_, err = svc.ValidateRefresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)

	// Access tokens are stateless and survive revocation until expiry.
	userID, err := svc.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)

	// Revoking again is a no-op.
	require.NoError(t, svc.Revoke(context.Background(), "user-1"))
}

func TestMintPairAbortsOnCacheWriteFailure(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newMemStore(func() time.Time { return now })
	store.failSet = errors.New("cache down")
	svc := newTestTokenService(t, store, &now)

	_, err := svc.MintPair(context.Background(), "user-1")
	require.Error(t, err)
	require.Zero(t, store.len())
}

func TestValidateRefreshRejectsAccessToken(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newMemStore(func() time.Time { return now })
	svc := newTestTokenService(t, store, &now)

	pair, err := svc.MintPair(context.Background(), "user-1")
	require.NoError(t, err)

	_, err = svc.ValidateRefresh(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateAccess(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokensAreRejected(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newMemStore(func() time.Time { return now })
	svc := newTestTokenService(t, store, &now)

	pair, err := svc.MintPair(context.Background(), "user-1")
	require.NoError(t, err)

	now = now.Add(16 * time.Minute)
	_, err = svc.ValidateAccess(pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	// The refresh token outlives the access token.
	userID, err := svc.ValidateRefresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)

	now = now.Add(721 * time.Hour)
	_, err = svc.ValidateRefresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessRejectsGarbage(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newMemStore(func() time.Time { return now })
	svc := newTestTokenService(t, store, &now)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.ValidateAccess(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	}
}
