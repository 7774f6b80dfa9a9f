package store

import (
	"context"
	"testing"

	"linkcart/internal/client"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupGormStore(t *testing.T) LocalStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, client.Migrate(db))
	return NewGormStore(db)
}

func setupRedisStore(t *testing.T) (LocalStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb), mr
}

func eachStore(t *testing.T, fn func(t *testing.T, s LocalStore)) {
	t.Run("gorm", func(t *testing.T) { fn(t, setupGormStore(t)) })
	t.Run("redis", func(t *testing.T) {
		s, _ := setupRedisStore(t)
		fn(t, s)
	})
}

func TestLocalStore_GetMissing(t *testing.T) {
	eachStore(t, func(t *testing.T, s LocalStore) {
		_, err := s.Get(context.Background(), "buyer:a@x.com", KeyCart)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLocalStore_PutOverwrites(t *testing.T) {
	eachStore(t, func(t *testing.T, s LocalStore) {
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "buyer:a@x.com", KeyCart, []byte(`[1]`)))
		require.NoError(t, s.Put(ctx, "buyer:a@x.com", KeyCart, []byte(`[1,2]`)))

		got, err := s.Get(ctx, "buyer:a@x.com", KeyCart)
		require.NoError(t, err)
		assert.Equal(t, `[1,2]`, string(got))
	})
}

func TestLocalStore_ScopesAreIsolated(t *testing.T) {
	eachStore(t, func(t *testing.T, s LocalStore) {
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "buyer:a@x.com", KeyCart, []byte(`"a"`)))

		_, err := s.Get(ctx, "buyer:b@x.com", KeyCart)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Get(ctx, "guest:anonymous", KeyCart)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLocalStore_DeleteMissingIsNoError(t *testing.T) {
	eachStore(t, func(t *testing.T, s LocalStore) {
		assert.NoError(t, s.Delete(context.Background(), "buyer:a@x.com", KeyPendingLinks))
	})
}

func TestJSONHelpers(t *testing.T) {
	s := setupGormStore(t)
	ctx := context.Background()

	var links []string
	found, err := LoadJSON(ctx, s, "guest:g1", KeyPendingLinks, &links)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SaveJSON(ctx, s, "guest:g1", KeyPendingLinks, []string{"a", "b"}))
	found, err = LoadJSON(ctx, s, "guest:g1", KeyPendingLinks, &links)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, links)

	require.NoError(t, s.Delete(ctx, "guest:g1", KeyPendingLinks))
	found, err = LoadJSON(ctx, s, "guest:g1", KeyPendingLinks, &links)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadJSON_Corrupt(t *testing.T) {
	s, mr := setupRedisStore(t)
	require.NoError(t, mr.Set(stateKey("buyer:a@x.com", KeyCart), "{not json"))

	var v []string
	_, err := LoadJSON(context.Background(), s, "buyer:a@x.com", KeyCart, &v)
	assert.ErrorContains(t, err, "decode cart")
}

func TestStateKey_Format(t *testing.T) {
	assert.Equal(t, "linkcart:buyer:a@x.com:cart", stateKey("buyer:a@x.com", KeyCart))
}
