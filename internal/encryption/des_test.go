package encryption

import (
	"bytes"
	"errors"
	"testing"
)

var testKey = []byte{0x13, 0x37, 0xca, 0xfe, 0xba, 0xbe, 0x42, 0x7f}

func newTestSession(t *testing.T) *Session {
	s := NewSession()
	if err := s.Initialize(testKey); err != nil {
		t.Fatalf("Initialize() unexpected error: %v", err)
	}
	return s
}

func TestSession_Uninitialized(t *testing.T) {
	s := NewSession()
	if s.Initialized() {
		t.Error("Initialized() = true before key exchange")
	}
	if _, err := s.Encrypt([]byte("data")); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Encrypt() error = %v, want %v", err, ErrNotInitialized)
	}
	if _, err := s.Decrypt([]byte("data")); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Decrypt() error = %v, want %v", err, ErrNotInitialized)
	}
}

func TestSession_InitializeRejectsBadKeys(t *testing.T) {
	s := NewSession()
	if err := s.Initialize([]byte("short")); err == nil {
		t.Error("Initialize() accepted a 5 byte key")
	}
	if err := s.Initialize(make([]byte, 16)); err == nil {
		t.Error("Initialize() accepted a 16 byte key")
	}
}

func TestSession_RoundTrip(t *testing.T) {
	s := newTestSession(t)

	// Every length class matters: empty, sub-block, exact blocks, and
	// blocks plus a ragged tail.
	for _, size := range []int{0, 1, 7, 8, 16, 24, 9, 15, 23, 100} {
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(i*7 + 3)
		}

		encrypted, err := s.Encrypt(data)
		if err != nil {
			t.Fatalf("Encrypt() unexpected error: %v", err)
		}
		if len(encrypted) != len(data) {
			t.Fatalf("Encrypt() changed length: %d -> %d", len(data), len(encrypted))
		}

		decrypted, err := s.Decrypt(encrypted)
		if err != nil {
			t.Fatalf("Decrypt() unexpected error: %v", err)
		}
		if !bytes.Equal(decrypted, data) {
			t.Errorf("size %d: Decrypt(Encrypt(x)) != x", size)
		}
	}
}

func TestSession_TailPassesThrough(t *testing.T) {
	s := newTestSession(t)

	data := make([]byte, 13)
	for i := range data {
		data[i] = byte(0xa0 + i)
	}

	encrypted, err := s.Encrypt(data)
	if err != nil {
		t.Fatalf("Encrypt() unexpected error: %v", err)
	}

	if bytes.Equal(encrypted[:8], data[:8]) {
		t.Error("aligned prefix was not transformed")
	}
	if !bytes.Equal(encrypted[8:], data[8:]) {
		t.Errorf("tail bytes were modified: got %x, want %x", encrypted[8:], data[8:])
	}
}

func TestSession_BlocksAreIndependent(t *testing.T) {
	s := newTestSession(t)

	// Two identical plaintext blocks must produce two identical ciphertext
	// blocks; the mode applies the cipher per block with no chaining.
	data := append(bytes.Repeat([]byte{0x11}, 8), bytes.Repeat([]byte{0x11}, 8)...)
	encrypted, err := s.Encrypt(data)
	if err != nil {
		t.Fatalf("Encrypt() unexpected error: %v", err)
	}
	if !bytes.Equal(encrypted[:8], encrypted[8:]) {
		t.Error("identical blocks encrypted differently; chaining must not be applied")
	}
}
