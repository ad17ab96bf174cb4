package cache

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/kvira-space/internal/config"
)

type testProfile struct {
	Name string
	Lang string
}

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := testProfile{Name: "Puk", Lang: "rus"}
	require.NoError(t, cache.Set(ctx, "user:1", expected, 0))

	var actual testProfile
	found, err := cache.Get(ctx, "user:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestSetWithExpiration(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "texts", "snapshot", time.Minute))
	mr.FastForward(2 * time.Minute)

	var out string
	found, err := cache.Get(ctx, "texts", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out testProfile
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, mr := setupTestCache(t)
	require.NoError(t, mr.Set("bad", "not-json"))

	var out testProfile
	found, err := cache.Get(context.Background(), "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestSets(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	members, err := cache.MembersOf(ctx, "admin_chats")
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, cache.AddToSet(ctx, "admin_chats", "100"))
	require.NoError(t, cache.AddToSet(ctx, "admin_chats", "200"))
	require.NoError(t, cache.AddToSet(ctx, "admin_chats", "100"))

	members, err = cache.MembersOf(ctx, "admin_chats")
	require.NoError(t, err)
	sort.Strings(members)
	assert.Equal(t, []string{"100", "200"}, members)
}

func TestAddNewToSet(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	added, err := cache.AddNewToSet(ctx, "reported", "row 1")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = cache.AddNewToSet(ctx, "reported", "row 1")
	require.NoError(t, err)
	assert.False(t, added)

	members, err := mr.Members("reported")
	require.NoError(t, err)
	assert.Equal(t, []string{"row 1"}, members)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:9999",
		DialTimeout:  100 * time.Millisecond,
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}
