package sigasset

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	c := SecretBoxCipher{}
	plain := []byte("signature strokes")

	sealed, err := c.Seal("hunter2", plain)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(sealed, plain) {
		t.Fatal("sealed payload leaks plaintext")
	}

	got, err := c.Open("hunter2", sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestOpenWrongPassword(t *testing.T) {
	c := SecretBoxCipher{}
	sealed, err := c.Seal("correct", []byte("content"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := c.Open("incorrect", sealed); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
}

func TestOpenTruncatedPayload(t *testing.T) {
	c := SecretBoxCipher{}
	if _, err := c.Open("pw", []byte("short")); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}

func TestSealIsSaltedPerCall(t *testing.T) {
	c := SecretBoxCipher{}
	a, err := c.Seal("pw", []byte("same content"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	b, err := c.Seal("pw", []byte("same content"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatal("two seals of the same content must differ")
	}
}
