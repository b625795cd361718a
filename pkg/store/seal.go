package store

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

// ErrSealedTokenInvalid is returned when a sealed token cannot be opened,
// usually because the passphrase changed.
var ErrSealedTokenInvalid = errors.New("sealed token invalid")

// Sealer encrypts tokens at rest with a key derived from a passphrase.
// Output is base64(salt | nonce | secretbox).
type Sealer struct {
	passphrase []byte
}

// NewSealer returns nil for an empty passphrase, meaning "store in clear".
func NewSealer(passphrase string) *Sealer {
	if strings.TrimSpace(passphrase) == "" {
		return nil
	}
	return &Sealer{passphrase: []byte(passphrase)}
}

// Seal encrypts plaintext.
func (s *Sealer) Seal(plaintext string) (string, error) {
	var salt [saltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	key := s.derive(salt[:])
	out := make([]byte, 0, saltSize+nonceSize+len(plaintext)+secretbox.Overhead)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, []byte(plaintext), &nonce, &key)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(sealed))
	if err != nil || len(raw) < saltSize+nonceSize+secretbox.Overhead {
		return "", ErrSealedTokenInvalid
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[saltSize:saltSize+nonceSize])
	key := s.derive(raw[:saltSize])
	plain, ok := secretbox.Open(nil, raw[saltSize+nonceSize:], &nonce, &key)
	if !ok {
		return "", ErrSealedTokenInvalid
	}
	return string(plain), nil
}

func (s *Sealer) derive(salt []byte) [keySize]byte {
	var key [keySize]byte
	copy(key[:], argon2.IDKey(s.passphrase, salt, 1, 64*1024, 2, keySize))
	return key
}
