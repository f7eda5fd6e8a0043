package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/connecthq/connect/internal/models"
)

func openCacheTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.CacheEntry{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func TestDatabaseStoreSetGetDelete(t *testing.T) {
	store := NewDatabaseStore(openCacheTestDB(t))

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "db-key", []byte("value-1"), time.Hour))

	value, found, err := store.Get(ctx, "db-key")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("value-1"), value)

	// Set on an existing key overwrites.
	require.NoError(t, store.Set(ctx, "db-key", []byte("value-2"), time.Hour))
	value, found, err = store.Get(ctx, "db-key")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("value-2"), value)

	require.NoError(t, store.Delete(ctx, "db-key"))
	_, found, err = store.Get(ctx, "db-key")
	require.NoError(t, err)
	require.False(t, found)

	// Deleting an absent key is a no-op.
	require.NoError(t, store.Delete(ctx, "db-key"))
}

func TestDatabaseStoreExpiry(t *testing.T) {
	store := NewDatabaseStore(openCacheTestDB(t))

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "ttl-key", []byte("short-lived"), time.Millisecond))

	time.Sleep(5 * time.Millisecond)

	_, found, err := store.Get(ctx, "ttl-key")
	require.NoError(t, err)
	require.False(t, found)
}

func TestDatabaseStoreMissingKey(t *testing.T) {
	store := NewDatabaseStore(openCacheTestDB(t))

	_, found, err := store.Get(context.Background(), "never-set")
	require.NoError(t, err)
	require.False(t, found)
}
