// Package encryption implements the session cipher used on the game server
// connection. The server hands the client a DES key during the handshake
// and both sides run the cipher in ECB mode, block by block with no
// chaining or IV.
package encryption

import (
	"crypto/cipher"
	"crypto/des" //nolint:gosec // the protocol's cipher, not our choice
	"errors"
	"fmt"
)

// BlockSize is the DES cipher block size in bytes.
const BlockSize = des.BlockSize

// KeySize is the required key length in bytes.
const KeySize = 8

// ErrNotInitialized is returned when Encrypt or Decrypt is called before a
// key has been exchanged.
var ErrNotInitialized = errors.New("session cipher has not been initialized")

// Session is the stateful cipher wrapper for one game server connection.
// It is keyed exactly once, after the game server login response delivers
// the session key; the protocol never re-keys.
type Session struct {
	block cipher.Block
}

func NewSession() *Session {
	return &Session{}
}

// Initialize sets the session key. The key must be exactly 8 bytes.
func (s *Session) Initialize(key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("session key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := des.NewCipher(key)
	if err != nil {
		return fmt.Errorf("initializing cipher: %w", err)
	}
	s.block = block
	return nil
}

// Initialized reports whether a key has been exchanged.
func (s *Session) Initialized() bool {
	return s.block != nil
}

// Encrypt transforms the largest whole-block prefix of data and passes any
// remaining tail bytes through unmodified, so inputs of any length survive
// a round trip byte-for-byte.
func (s *Session) Encrypt(data []byte) ([]byte, error) {
	return s.apply(data, func(dst, src []byte) { s.block.Encrypt(dst, src) })
}

// Decrypt is the inverse of Encrypt, with the same whole-blocks-only policy.
func (s *Session) Decrypt(data []byte) ([]byte, error) {
	return s.apply(data, func(dst, src []byte) { s.block.Decrypt(dst, src) })
}

func (s *Session) apply(data []byte, transform func(dst, src []byte)) ([]byte, error) {
	if s.block == nil {
		return nil, ErrNotInitialized
	}

	aligned := len(data) / BlockSize * BlockSize
	out := make([]byte, len(data))
	for i := 0; i < aligned; i += BlockSize {
		transform(out[i:i+BlockSize], data[i:i+BlockSize])
	}
	copy(out[aligned:], data[aligned:])
	return out, nil
}
