package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrUnsealFailed indicates a sealed value was tampered with or sealed under another key.
var ErrUnsealFailed = errors.New("failed to unseal value")

// Sealer encrypts short secrets with NaCl secretbox.
type Sealer struct {
	key [32]byte
}

// NewSealer derives the box key from secret. An empty secret yields a random
// key, so sealed values do not survive a restart.
func NewSealer(secret string) (*Sealer, error) {
	s := &Sealer{}

	if secret == "" {
		if _, err := io.ReadFull(rand.Reader, s.key[:]); err != nil {
			return nil, fmt.Errorf("failed to generate sealing key: %w", err)
		}
		return s, nil
	}

	s.key = sha256.Sum256([]byte(secret))
	return s, nil
}

// Seal encrypts plaintext and returns nonce and box, base64 encoded.
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	box, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsealFailed, err)
	}
	if len(box) < nonceSize+secretbox.Overhead {
		return "", ErrUnsealFailed
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])

	plaintext, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrUnsealFailed
	}

	return string(plaintext), nil
}
