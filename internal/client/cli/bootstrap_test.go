package cli

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/dosekeeper/internal/client/config"
	"github.com/dmitrijs2005/dosekeeper/internal/credentials"
	"github.com/dmitrijs2005/dosekeeper/internal/kvstore"
	"github.com/dmitrijs2005/dosekeeper/internal/logging"
	"github.com/dmitrijs2005/dosekeeper/internal/remote"
	"github.com/dmitrijs2005/dosekeeper/internal/remote/pgidentity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.KVDriver = config.KVMemory
	return cfg
}

func TestOpenKV(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite creates parent dir", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.KVDriver = config.KVSQLite
		cfg.DBPath = filepath.Join(t.TempDir(), "nested", "dk.db")

		kv, closer, err := openKV(ctx, cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = closer.Close() })

		require.NoError(t, kv.Set(ctx, "k", []byte("v")))
		assert.FileExists(t, cfg.DBPath)
	})

	t.Run("sealed when passphrase set", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.StoragePassphrase = "hunter2"

		kv, _, err := openKV(ctx, cfg)
		require.NoError(t, err)
		_, ok := kv.(*kvstore.Sealed)
		assert.True(t, ok)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.KVDriver = "etcd"

		_, _, err := openKV(ctx, cfg)
		require.ErrorContains(t, err, `unknown kv driver "etcd"`)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.KVDriver = config.KVRedis
		cfg.RedisAddr = "127.0.0.1:1"

		_, _, err := openKV(ctx, cfg)
		require.Error(t, err)
	})
}

func TestBootstrap_LocalBackend(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	app, store, cleanup, err := Bootstrap(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(cleanup)

	_, ok := app.resetter.(*credentials.Repository)
	assert.True(t, ok)
	assert.Nil(t, app.checker)
	assert.False(t, app.uploader.Enabled())

	store.WarmStart(ctx)
	store.Initialize(ctx)
	require.True(t, store.SignUp(ctx, "Ana", "ana@x.com", "secret1"))
	assert.True(t, app.isLoggedIn())
}

func TestBootstrap_RemoteBackend(t *testing.T) {
	ctx := context.Background()
	orig := openRemote
	t.Cleanup(func() { openRemote = orig })

	t.Run("open failure", func(t *testing.T) {
		openRemote = func(context.Context, string, kvstore.Store, pgidentity.Config, logging.Logger) (*pgidentity.Provider, error) {
			return nil, errors.New("connection refused")
		}
		cfg := testConfig(t)
		cfg.Backend = config.BackendRemote

		_, _, _, err := Bootstrap(ctx, cfg, logging.Nop())
		require.ErrorContains(t, err, "open remote backend")
	})

	t.Run("wires checker", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectClose()

		var gotCfg pgidentity.Config
		openRemote = func(_ context.Context, dsn string, kv kvstore.Store, c pgidentity.Config, log logging.Logger) (*pgidentity.Provider, error) {
			gotCfg = c
			return pgidentity.New(db, kv, c, log), nil
		}
		cfg := testConfig(t)
		cfg.Backend = config.BackendRemote
		cfg.JWTSecret = "s3cret"

		app, _, cleanup, err := Bootstrap(ctx, cfg, logging.Nop())
		require.NoError(t, err)

		_, ok := app.checker.(*remote.Backend)
		assert.True(t, ok)
		assert.Nil(t, app.resetter)
		assert.Equal(t, "s3cret", gotCfg.JWTSecret)
		assert.Equal(t, "local", gotCfg.ProjectRef)

		cleanup()
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBootstrap_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend = "ldap"

	_, _, _, err := Bootstrap(context.Background(), cfg, logging.Nop())
	require.ErrorContains(t, err, `unknown backend "ldap"`)
}
