package kvstore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
	"github.com/dmitrijs2005/dosekeeper/internal/cryptox"
)

// saltKey stores the per-store key-derivation salt in the clear.
const saltKey = "__kv_salt"

// Sealed encrypts values with AES-GCM before handing them to the inner
// store. Keys stay in the clear so prefix listing keeps working, and each
// value is bound to its key so it cannot be replayed under another one.
type Sealed struct {
	inner Store
	key   []byte
}

// NewSealed derives the sealing key from passphrase and the store's salt,
// creating the salt on first use.
func NewSealed(ctx context.Context, inner Store, passphrase []byte) (*Sealed, error) {
	salt, err := inner.Get(ctx, saltKey)
	if err != nil {
		return nil, fmt.Errorf("read kv salt: %w", err)
	}
	if salt == nil {
		salt = common.GenerateRandByteArray(16)
		if err := inner.Set(ctx, saltKey, salt); err != nil {
			return nil, fmt.Errorf("write kv salt: %w", err)
		}
	}
	return &Sealed{inner: inner, key: cryptox.DeriveKey(passphrase, salt)}, nil
}

func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil || sealed == nil {
		return nil, err
	}
	plain, err := cryptox.Open(s.key, sealed, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("open kv[%s]: %w", key, err)
	}
	return plain, nil
}

func (s *Sealed) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := cryptox.Seal(s.key, value, []byte(key))
	if err != nil {
		return fmt.Errorf("seal kv[%s]: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *Sealed) SetMany(ctx context.Context, values map[string][]byte) error {
	sealed := make(map[string][]byte, len(values))
	for k, v := range values {
		b, err := cryptox.Seal(s.key, v, []byte(k))
		if err != nil {
			return fmt.Errorf("seal kv[%s]: %w", k, err)
		}
		sealed[k] = b
	}
	return SetAll(ctx, s.inner, sealed)
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *Sealed) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.inner.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := keys[:0]
	for _, k := range keys {
		if k != saltKey {
			out = append(out, k)
		}
	}
	return out, nil
}
