package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealed_Contract(t *testing.T) {
	s, err := NewSealed(context.Background(), NewMemoryStore(), []byte("device-secret"))
	require.NoError(t, err)
	runStoreContract(t, s)
}

func TestSealed_ValuesEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()

	s, err := NewSealed(ctx, inner, []byte("device-secret"))
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "current_session", []byte(`{"access_token":"abc"}`)))

	raw, err := inner.Get(ctx, "current_session")
	require.NoError(t, err)
	require.NotContains(t, string(raw), "access_token")

	keys, err := s.Keys(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"current_session"}, keys, "salt key must stay hidden")
}

func TestSealed_ReopenWithSameAndWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()

	s1, err := NewSealed(ctx, inner, []byte("pass"))
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, "k", []byte("v")))

	s2, err := NewSealed(ctx, inner, []byte("pass"))
	require.NoError(t, err)
	v, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", string(v))

	s3, err := NewSealed(ctx, inner, []byte("wrong"))
	require.NoError(t, err)
	_, err = s3.Get(ctx, "k")
	require.ErrorContains(t, err, "open kv[k]")
}

func TestSealed_ValueCopiedToAnotherKeyFails(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()

	s, err := NewSealed(ctx, inner, []byte("device-secret"))
	require.NoError(t, err)
	require.NoError(t, s.SetMany(ctx, map[string][]byte{"a": []byte(`{"user":"ana"}`)}))

	raw, err := inner.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, inner.Set(ctx, "b", raw))

	_, err = s.Get(ctx, "b")
	require.ErrorContains(t, err, "open kv[b]")

	v, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, `{"user":"ana"}`, string(v))
}
