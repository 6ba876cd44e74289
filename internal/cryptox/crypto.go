// Package cryptox holds the cryptographic primitives of the client: salted
// password hashing, session token minting and value sealing for the
// encrypted key/value store.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	saltSize   = 16
	keySize    = 32
	tokenBytes = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4

	hashScheme = "argon2id"
)

var ErrMalformedHash = errors.New("malformed password hash")

// DeriveKey stretches secret with salt into a 32-byte AES-256 key.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, keySize)
}

// HashPassword returns an encoded argon2id hash of password with a fresh
// random salt, in the form "argon2id$<salt>$<key>" (base64, no padding).
func HashPassword(password string) string {
	salt := common.GenerateRandByteArray(saltSize)
	key := DeriveKey([]byte(password), salt)
	enc := base64.RawStdEncoding
	return strings.Join([]string{hashScheme, enc.EncodeToString(salt), enc.EncodeToString(key)}, "$")
}

// VerifyPassword reports whether password matches the encoded hash. The
// comparison is constant time.
func VerifyPassword(encoded, password string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != hashScheme {
		return false, ErrMalformedHash
	}
	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[1])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	want, err := enc.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	got := DeriveKey([]byte(password), salt)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// NewSessionToken returns a random 256-bit token, hex encoded.
func NewSessionToken() (string, error) {
	return common.MakeRandHexString(tokenBytes)
}

// Seal encrypts plaintext with AES-GCM under key, authenticating aad along
// with it. The random nonce is prepended to the returned ciphertext.
func Seal(key, plaintext, aad []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	return aesgcm.Seal(nonce, nonce, plaintext, aad), nil
}

// Open reverses Seal. aad must match the value given to Seal.
func Open(key, sealed, aad []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	ns := aesgcm.NonceSize()
	if len(sealed) < ns {
		return nil, errors.New("ciphertext too short")
	}
	return aesgcm.Open(nil, sealed[:ns], sealed[ns:], aad)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
