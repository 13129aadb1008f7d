package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret1" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}
	if !h.Verify("secret1", hash) {
		t.Fatalf("expected match")
	}
	if h.Verify("secret2", hash) {
		t.Fatalf("expected mismatch")
	}
}

func TestHasher_SaltedHashesDiffer(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, _ := h.Hash("same-password")
	b, _ := h.Hash("same-password")
	if a == b {
		t.Fatalf("expected distinct salted hashes")
	}
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	if h.Verify("secret1", "not-a-hash") {
		t.Fatalf("malformed hash must not verify")
	}
	if h.Verify("", "") {
		t.Fatalf("empty hash must not verify")
	}
}

func TestHasher_TooLong(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("a", MaxLength+1)); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	if c := NewHasher(0).Cost(); c != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", c)
	}
	if c := NewHasher(1).Cost(); c != bcrypt.MinCost {
		t.Fatalf("expected min cost, got %d", c)
	}
	if c := NewHasher(99).Cost(); c != bcrypt.MaxCost {
		t.Fatalf("expected max cost, got %d", c)
	}
}
