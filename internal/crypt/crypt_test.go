package crypt_test

import (
	"errors"
	"testing"

	"github.com/aryapradana/galeri/internal/crypt"
)

func newCodec(t *testing.T) *crypt.IDCodec {
	t.Helper()
	codec, err := crypt.NewIDCodec([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewIDCodec returned error: %v", err)
	}
	return codec
}

func TestRoundTrip(t *testing.T) {
	codec := newCodec(t)

	for _, id := range []int64{1, 42, 1<<62 - 1} {
		token := codec.Encode(id)
		got, err := codec.Decode(token)
		if err != nil {
			t.Fatalf("Decode(%q) returned error: %v", token, err)
		}
		if got != id {
			t.Fatalf("expected %d, got %d", id, got)
		}
	}
}

func TestTokensAreNondeterministic(t *testing.T) {
	codec := newCodec(t)

	a := codec.Encode(7)
	b := codec.Encode(7)
	if a == b {
		t.Fatalf("expected distinct tokens for the same id")
	}
}

func TestDecodeRejectsTamperedToken(t *testing.T) {
	codec := newCodec(t)

	token := codec.Encode(99)
	tampered := token[:len(token)-2] + "xx"

	if _, err := codec.Decode(tampered); !errors.Is(err, crypt.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDecodeRejectsJunk(t *testing.T) {
	codec := newCodec(t)

	for _, token := range []string{"", "abc", "!!not base64!!", "AAAA"} {
		if _, err := codec.Decode(token); !errors.Is(err, crypt.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}

func TestDecodeRejectsForeignKey(t *testing.T) {
	codec := newCodec(t)
	other, err := crypt.NewIDCodec([]byte("fedcba9876543210fedcba9876543210"))
	if err != nil {
		t.Fatalf("NewIDCodec returned error: %v", err)
	}

	token := codec.Encode(5)
	if _, err := other.Decode(token); !errors.Is(err, crypt.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign token, got %v", err)
	}
}

func TestNewIDCodecRejectsBadKeyLength(t *testing.T) {
	if _, err := crypt.NewIDCodec([]byte("short")); err == nil {
		t.Fatalf("expected error for invalid key length")
	}
}
