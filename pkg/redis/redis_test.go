package redis

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDeviceStore(t *testing.T, scope string) (*miniredis.Miniredis, *DeviceStore) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, NewDeviceStore(rdb, scope)
}

func TestDeviceStore_RoundTrip(t *testing.T) {
	mr, store := setupDeviceStore(t, "device-1")

	_, found, err := store.Get("favorites")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set("favorites", []byte(`{"restaurants":["101"],"dishes":[]}`)))
	assert.True(t, mr.Exists("device:device-1:favorites"))

	value, found, err := store.Get("favorites")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"restaurants":["101"],"dishes":[]}`, string(value))

	require.NoError(t, store.Delete("favorites"))
	_, found, err = store.Get("favorites")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeviceStore_ScopesAreIsolated(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	a := NewDeviceStore(rdb, "a")
	b := NewDeviceStore(rdb, "b")

	require.NoError(t, a.Set("session", []byte("alice")))

	_, found, err := b.Get("session")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeviceStore_ServerDown(t *testing.T) {
	mr, store := setupDeviceStore(t, "device-1")
	mr.Close()

	_, _, err := store.Get("session")
	assert.Error(t, err)
	assert.Error(t, store.Set("session", []byte("x")))
}
