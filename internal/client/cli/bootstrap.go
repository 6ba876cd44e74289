package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/dosekeeper/internal/avatars"
	"github.com/dmitrijs2005/dosekeeper/internal/client/config"
	"github.com/dmitrijs2005/dosekeeper/internal/credentials"
	"github.com/dmitrijs2005/dosekeeper/internal/filex"
	"github.com/dmitrijs2005/dosekeeper/internal/kvstore"
	"github.com/dmitrijs2005/dosekeeper/internal/logging"
	"github.com/dmitrijs2005/dosekeeper/internal/remote"
	"github.com/dmitrijs2005/dosekeeper/internal/remote/pgidentity"
	"github.com/dmitrijs2005/dosekeeper/internal/session"
)

// openRemote is a test seam for pgidentity.Open.
var openRemote = pgidentity.Open

func openKV(ctx context.Context, cfg *config.Config) (kvstore.Store, io.Closer, error) {
	var (
		kv     kvstore.Store
		closer io.Closer
	)

	switch cfg.KVDriver {
	case config.KVSQLite:
		path, err := filex.EnsureParentDir(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		s, err := kvstore.OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite kv: %w", err)
		}
		kv, closer = s, s
	case config.KVRedis:
		s, err := kvstore.DialRedis(ctx, cfg.RedisAddr, cfg.RedisNamespace)
		if err != nil {
			return nil, nil, err
		}
		kv, closer = s, s
	case config.KVMemory:
		kv, closer = kvstore.NewMemoryStore(), io.NopCloser(nil)
	default:
		return nil, nil, fmt.Errorf("unknown kv driver %q", cfg.KVDriver)
	}

	if cfg.StoragePassphrase != "" {
		sealed, err := kvstore.NewSealed(ctx, kv, []byte(cfg.StoragePassphrase))
		if err != nil {
			_ = closer.Close()
			return nil, nil, err
		}
		kv = sealed
	}
	return kv, closer, nil
}

// Bootstrap builds the key/value store, the configured backend, the session
// store and the App on top of them. The returned cleanup disposes the session
// store and releases connections.
func Bootstrap(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, *session.Store, func(), error) {
	kv, kvCloser, err := openKV(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	closers := []io.Closer{kvCloser}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Warn(ctx, "close failed", "error", err)
			}
		}
	}

	var (
		backend session.Backend
		opts    []Option
	)

	switch cfg.Backend {
	case config.BackendLocal:
		repo := credentials.NewRepository(kv, log, credentials.WithSessionTTL(cfg.SessionTTL))
		backend = credentials.NewLocalBackend(repo)
		opts = append(opts, WithResetter(repo))
	case config.BackendRemote:
		p, err := openRemote(ctx, cfg.RemoteDSN, kv, pgidentity.Config{
			JWTSecret:  []byte(cfg.JWTSecret),
			ProjectRef: cfg.ProjectRef,
			TokenTTL:   cfg.TokenTTL,
		}, log)
		if err != nil {
			closeAll()
			return nil, nil, nil, fmt.Errorf("open remote backend: %w", err)
		}
		closers = append(closers, p)
		rb := remote.NewBackend(remote.NewAdapter(p, p, kv, log), p, p)
		backend = rb
		opts = append(opts, WithConnectionChecker(rb))
	default:
		closeAll()
		return nil, nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	store := session.New(backend, kvstore.NewTolerant(kv, log), log)

	opts = append(opts, WithUploader(avatars.New(avatars.Config{
		Region:        cfg.S3.Region,
		AccessKey:     cfg.S3.AccessKey,
		SecretKey:     cfg.S3.SecretKey,
		Endpoint:      cfg.S3.Endpoint,
		Bucket:        cfg.S3.Bucket,
		PublicBaseURL: cfg.S3.PublicBaseURL,
	}, nil, log)))

	cleanup := func() {
		store.Dispose()
		closeAll()
	}
	return NewApp(cfg, store, log, opts...), store, cleanup, nil
}
