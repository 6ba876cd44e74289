package pgidentity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/dosekeeper/internal/common"
	"github.com/dmitrijs2005/dosekeeper/internal/kvstore"
	"github.com/dmitrijs2005/dosekeeper/internal/logging"
	"github.com/dmitrijs2005/dosekeeper/internal/remote"
	"github.com/dmitrijs2005/dosekeeper/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyKV fails the next Get of one key, then behaves normally.
type flakyKV struct {
	kvstore.Store
	mu      sync.Mutex
	failKey string
	fails   int
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	if key == f.failKey && f.fails > 0 {
		f.fails--
		f.mu.Unlock()
		return nil, errors.New("kv get " + key + ": disk I/O error")
	}
	f.mu.Unlock()
	return f.Store.Get(ctx, key)
}

func newRemoteStack(t *testing.T, kv kvstore.Store) (*Provider, sqlmock.Sqlmock, *remote.Backend) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	p := New(db, kv, Config{JWTSecret: []byte("test-secret"), ProjectRef: "x"}, logging.Nop())
	p.now = func() time.Time { return testNow }
	a := remote.NewAdapter(p, p, kv, logging.Nop())
	return p, mock, remote.NewBackend(a, p, p)
}

func TestInitialize_ReadOutageKeepsStoredSession(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{Store: kvstore.NewMemoryStore(), failKey: SessionKey("x")}
	p, mock, b := newRemoteStack(t, kv)

	_, err := p.startSession(ctx, remote.Identity{ID: "u-1", Email: "ana@x.com"})
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, common.DoseCacheKey, []byte(`[{"id":"d1"}]`)))
	kv.fails = 1

	s := session.New(b, kv, logging.Nop())
	defer s.Dispose()
	s.Initialize(ctx)

	st := s.State()
	assert.True(t, st.IsInitialized)
	assert.False(t, st.IsAuthenticated)

	raw, err := kv.Get(ctx, SessionKey("x"))
	require.NoError(t, err)
	assert.NotNil(t, raw, "session record must survive a read outage")
	raw, err = kv.Get(ctx, common.DoseCacheKey)
	require.NoError(t, err)
	assert.NotNil(t, raw, "dose cache must survive a read outage")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInitialize_CorruptRecordClearsSession(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	_, _, b := newRemoteStack(t, kv)

	require.NoError(t, kv.Set(ctx, SessionKey("x"), []byte(`{not json`)))
	require.NoError(t, kv.Set(ctx, common.DoseCacheKey, []byte(`[]`)))

	s := session.New(b, kv, logging.Nop())
	defer s.Dispose()
	s.Initialize(ctx)

	assert.False(t, s.State().IsAuthenticated)
	raw, err := kv.Get(ctx, SessionKey("x"))
	require.NoError(t, err)
	assert.Nil(t, raw)
	raw, err = kv.Get(ctx, common.DoseCacheKey)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestCheckSession_DBOutageIsTransient(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	p, mock, b := newRemoteStack(t, kv)

	_, err := p.startSession(ctx, remote.Identity{ID: "u-1", Email: "ana@x.com"})
	require.NoError(t, err)

	mock.ExpectQuery(qSelectByID).WithArgs("u-1").WillReturnError(errors.New("connection reset by peer"))
	err = b.CheckSession(ctx)
	require.ErrorIs(t, err, common.ErrUnavailable)
	assert.NotErrorIs(t, err, common.ErrSessionIntegrity)

	mock.ExpectQuery(qSelectByID).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "user_metadata"}).AddRow("u-1", "ana@x.com", []byte(`{}`)))
	require.NoError(t, b.CheckSession(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}
