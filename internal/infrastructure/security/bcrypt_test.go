package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash("p1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if digest == "p1" {
		t.Fatalf("digest must not be the cleartext")
	}
	if !h.Compare("p1", digest) {
		t.Fatalf("expected password to match its digest")
	}
	if h.Compare("wrong", digest) {
		t.Fatalf("wrong password must not match")
	}
}

func TestBcryptHasher_Edges(t *testing.T) {
	h := NewBcryptHasher(99)
	if h.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", h.cost)
	}
	if _, err := h.Hash(""); err == nil {
		t.Fatalf("expected error for empty password")
	}
	if h.Compare("p1", "") || h.Compare("p1", "not-a-digest") {
		t.Fatalf("malformed digests must not match")
	}
}
