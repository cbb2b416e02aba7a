// Package crypt provides reversible encryption of numeric record ids so that
// clients only ever see opaque tokens. The same codec is used on every
// client-facing surface; raw ids never leave the process.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidToken indicates that a client-supplied token could not be decoded
// back into an id.
var ErrInvalidToken = errors.New("crypt: invalid token")

// IDCodec encrypts and decrypts record ids with AES-GCM.
type IDCodec struct {
	aead cipher.AEAD
}

// NewIDCodec builds a codec from a 16, 24 or 32 byte key.
func NewIDCodec(key []byte) (*IDCodec, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypt: new cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: new gcm: %w", err)
	}

	return &IDCodec{aead: aead}, nil
}

// Encode turns id into an opaque URL-safe token. Each call produces a
// different token for the same id because the nonce is random.
func (c *IDCodec) Encode(id int64) string {
	plaintext := []byte(strconv.FormatInt(id, 10))

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		// crypto/rand only fails when the platform entropy source is broken.
		panic(fmt.Sprintf("crypt: read nonce: %v", err))
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed)
}

// Decode reverses Encode. Any tampered, truncated or foreign token yields
// ErrInvalidToken.
func (c *IDCodec) Decode(token string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) <= nonceSize {
		return 0, ErrInvalidToken
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return 0, ErrInvalidToken
	}

	id, err := strconv.ParseInt(string(plaintext), 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}

	return id, nil
}
