package kvstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Contract(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	runStoreContract(t, NewRedisStore(client, "dk:"))
}

func TestRedisStore_NamespacesKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := DialRedis(ctx, mr.Addr(), "dk:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "auth-storage", []byte("{}")))
	require.True(t, mr.Exists("dk:auth-storage"))

	mr.Set("other:auth-storage", "x")
	keys, err := s.Keys(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"auth-storage"}, keys)
}

func TestDialRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := DialRedis(context.Background(), addr, "")
	require.ErrorContains(t, err, "redis ping")
}

func TestRedisStore_ServerErrorsAreWrapped(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisStore(client, "")
	ctx := context.Background()

	mr.SetError("LOADING")

	_, err := s.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get kv[k]")
	require.ErrorContains(t, s.Set(ctx, "k", nil), "failed to set kv[k]")
	require.ErrorContains(t, s.Delete(ctx, "k"), "failed to delete kv[k]")
}
