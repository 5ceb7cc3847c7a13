package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// ErrTokenTampered is returned when a sealed token fails authentication
var ErrTokenTampered = errors.New("sealed token failed authentication")

// TokenBox seals backend bearer tokens before they are written to the session store
type TokenBox struct {
	key [32]byte
}

// NewTokenBox derives the sealing key from secret
func NewTokenBox(secret string) *TokenBox {
	return &TokenBox{key: sha256.Sum256([]byte("tokenbox:" + secret))}
}

// Seal encrypts token and returns it base64 encoded with its nonce prepended
func (b *TokenBox) Seal(token string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, &b.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal
func (b *TokenBox) Open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decode sealed token: %w", err)
	}
	if len(raw) < 24+secretbox.Overhead {
		return "", ErrTokenTampered
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	out, ok := secretbox.Open(nil, raw[24:], &nonce, &b.key)
	if !ok {
		return "", ErrTokenTampered
	}
	return string(out), nil
}
