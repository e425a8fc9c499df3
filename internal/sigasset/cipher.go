package sigasset

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// ErrWrongPassword is the authentication-of-secret failure: the sealed
// payload is intact but the supplied password cannot open it. Distinct
// from transport errors, which are safe to blindly retry.
var ErrWrongPassword = errors.New("wrong password")

// Cipher seals and opens the signature asset payload. The store only
// ever sees the sealed form outside an explicit reveal.
type Cipher interface {
	Seal(password string, plain []byte) ([]byte, error)
	Open(password string, sealed []byte) ([]byte, error)
}

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// SecretBoxCipher derives a key from the password with argon2id and
// seals with nacl/secretbox. Layout: salt || nonce || box.
type SecretBoxCipher struct{}

func (SecretBoxCipher) Seal(password string, plain []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	key := deriveKey(password, salt)
	out := make([]byte, 0, saltSize+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, key), nil
}

func (SecretBoxCipher) Open(password string, sealed []byte) ([]byte, error) {
	if len(sealed) < saltSize+nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("sealed payload too short: %d bytes", len(sealed))
	}
	salt := sealed[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[saltSize:saltSize+nonceSize])

	key := deriveKey(password, salt)
	plain, ok := secretbox.Open(nil, sealed[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrWrongPassword
	}
	return plain, nil
}

func deriveKey(password string, salt []byte) *[keySize]byte {
	var key [keySize]byte
	copy(key[:], argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keySize))
	return &key
}
