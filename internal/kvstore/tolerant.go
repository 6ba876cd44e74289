package kvstore

import (
	"context"

	"github.com/dmitrijs2005/dosekeeper/internal/logging"
)

// Tolerant never returns errors: failed reads look like missing keys and
// failed writes become no-ops. Every failure is logged.
type Tolerant struct {
	inner  Store
	logger logging.Logger
}

func NewTolerant(inner Store, logger logging.Logger) *Tolerant {
	return &Tolerant{inner: inner, logger: logger.With("module", "kvstore")}
}

func (t *Tolerant) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := t.inner.Get(ctx, key)
	if err != nil {
		t.logger.Warn(ctx, "error getting item from storage", "key", key, "error", err)
		return nil, nil
	}
	return v, nil
}

func (t *Tolerant) Set(ctx context.Context, key string, value []byte) error {
	if err := t.inner.Set(ctx, key, value); err != nil {
		t.logger.Warn(ctx, "error setting item in storage", "key", key, "error", err)
	}
	return nil
}

func (t *Tolerant) SetMany(ctx context.Context, values map[string][]byte) error {
	if err := SetAll(ctx, t.inner, values); err != nil {
		t.logger.Warn(ctx, "error setting items in storage", "count", len(values), "error", err)
	}
	return nil
}

func (t *Tolerant) Delete(ctx context.Context, key string) error {
	if err := t.inner.Delete(ctx, key); err != nil {
		t.logger.Warn(ctx, "error removing item from storage", "key", key, "error", err)
	}
	return nil
}

func (t *Tolerant) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := t.inner.Keys(ctx, prefix)
	if err != nil {
		t.logger.Warn(ctx, "error listing storage keys", "prefix", prefix, "error", err)
		return nil, nil
	}
	return keys, nil
}
