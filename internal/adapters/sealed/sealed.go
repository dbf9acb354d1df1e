// Package sealed is the protected storage flavor: it encrypts values with
// AES-256-GCM before handing them to a plaintext backend.
package sealed

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"hotelstay/internal/domain"
)

// ErrCorrupt is returned by Get when a stored value cannot be opened
// (tampered, truncated or sealed under another key).
var ErrCorrupt = domain.ErrCorrupt

const hkdfInfo = "hotelstay/protected-kv/v1"

// Store wraps a plaintext KV. Keys are stored as-is, values are sealed.
type Store struct {
	inner domain.KV
	aead  cipher.AEAD
}

// DeriveKey stretches the device secret into a 32-byte AES key.
func DeriveKey(secret []byte) ([]byte, error) {
	h := hkdf.New(sha256.New, secret, nil, []byte(hkdfInfo))
	out := make([]byte, 32)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, err
	}
	return out, nil
}

func Wrap(inner domain.KV, secret []byte) (*Store, error) {
	if len(secret) == 0 {
		return nil, errors.New("sealed: device secret is required")
	}
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Store{inner: inner, aead: gcm}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	blob, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	ns := s.aead.NonceSize()
	if len(blob) < ns {
		return "", false, fmt.Errorf("%w: %s: ciphertext too short", ErrCorrupt, key)
	}
	// key is bound as associated data so values can't be swapped between keys
	pt, err := s.aead.Open(nil, blob[:ns], blob[ns:], []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("%w: %s", ErrCorrupt, key)
	}
	return string(pt), true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	ct := s.aead.Seal(nil, nonce, []byte(value), []byte(key))
	return s.inner.Set(ctx, key, base64.StdEncoding.EncodeToString(append(nonce, ct...)))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
