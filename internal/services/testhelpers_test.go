package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/connecthq/connect/internal/auth"
	"github.com/connecthq/connect/internal/models"
	"github.com/connecthq/connect/pkg/crypto"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.EmailVerification{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Follow{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

type memItem struct {
	value     []byte
	expiresAt time.Time
}

// memStore is an in-memory cache.Store double.
type memStore struct {
	mu    sync.Mutex
	items map[string]memItem
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]memItem)}
}

func (s *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry := time.Time{}
	if ttl > 0 {
		expiry = time.Now().Add(ttl)
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
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
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

// newTestTokenService builds a token service over an in-memory session cache.
// The returned clock pointer can be advanced to force distinct token strings.
func newTestTokenService(t *testing.T) (*auth.TokenService, *time.Time) {
	t.Helper()

	sessions, err := auth.NewSessionCache(newMemStore())
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc, err := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "connect-test",
		Clock:         func() time.Time { return now },
	}, sessions)
	require.NoError(t, err)

	return svc, &now
}

func seedUser(t *testing.T, db *gorm.DB, username, email, password string) *models.User {
	t.Helper()

	hashed, err := crypto.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:        username,
		Email:           email,
		Password:        hashed,
		ProfilePhotoURL: models.DefaultProfilePhoto,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
