// Package kvstore implements the durable key/value store that both the
// session snapshot and the local credential backend persist through.
//
// # Contract
//
// Get returns (nil, nil) for a missing key. Delete of a missing key is not an
// error. Keys lists keys starting with prefix ("" lists everything).
//
// # Implementations
//
//   - SQLiteStore: on-device store over an embedded-migrated SQLite table.
//   - RedisStore:  shared store with a namespace prefix.
//   - MemoryStore: process-local map, for tests and throwaway runs.
//
// Wrappers: Sealed encrypts values at rest; Tolerant logs failures and
// degrades them to absence/no-op.
package kvstore

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Store is the durable key/value contract.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Batcher is implemented by stores that can write several keys atomically.
type Batcher interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}

// SetAll writes values atomically when s supports it, one by one otherwise.
func SetAll(ctx context.Context, s Store, values map[string][]byte) error {
	if b, ok := s.(Batcher); ok {
		return b.SetMany(ctx, values)
	}
	for k, v := range values {
		if err := s.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// DeleteKeys removes keys concurrently and returns the first error.
func DeleteKeys(ctx context.Context, s Store, keys ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, k := range keys {
		g.Go(func() error {
			if err := s.Delete(ctx, k); err != nil {
				return fmt.Errorf("delete %q: %w", k, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Matcher is implemented by stores that can delete by predicate atomically.
type Matcher interface {
	DeleteMatching(ctx context.Context, match func(key string) bool) (int, error)
}

// Sweep deletes every key for which match returns true and reports how many
// keys were removed.
func Sweep(ctx context.Context, s Store, match func(key string) bool) (int, error) {
	if m, ok := s.(Matcher); ok {
		return m.DeleteMatching(ctx, match)
	}
	keys, err := s.Keys(ctx, "")
	if err != nil {
		return 0, err
	}
	var doomed []string
	for _, k := range keys {
		if match(k) {
			doomed = append(doomed, k)
		}
	}
	if err := DeleteKeys(ctx, s, doomed...); err != nil {
		return 0, err
	}
	return len(doomed), nil
}
