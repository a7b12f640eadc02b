package auth

import (
	"errors"
	"testing"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	hasher := newTestHasher()

	passwords := []string{"hunter2hunter2", "correct horse battery 1", "p4sswordp4ssword"}
	for _, pw := range passwords {
		hash, err := hasher.Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q): %v", pw, err)
		}
		if hash == pw {
			t.Fatalf("hash equals plaintext")
		}
		if !hasher.Verify(pw, hash) {
			t.Fatalf("Verify(%q) = false, want true", pw)
		}
		if hasher.Verify(pw+"x", hash) {
			t.Fatalf("Verify accepted wrong password")
		}
	}
}

func TestHashProducesDistinctSalts(t *testing.T) {
	hasher := newTestHasher()
	a, err := hasher.Hash("same-password-1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := hasher.Hash("same-password-1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password are identical")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	hasher := newTestHasher()
	if _, err := hasher.Hash("   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestVerifyEmptyHash(t *testing.T) {
	hasher := newTestHasher()
	if hasher.Verify("anything", "") {
		t.Fatalf("Verify with empty hash must be false")
	}
}

func TestPasswordPolicy(t *testing.T) {
	policy := DefaultPasswordPolicy()

	cases := []struct {
		name     string
		password string
		ok       bool
	}{
		{"valid", "sufficient1ylong", true},
		{"too short", "ab1", false},
		{"no digit", "onlylettershere", false},
		{"no letter", "123456789012", false},
		{"control characters", "pass\x01word123", false},
		{"exactly min length", "abcdefg1", true},
	}
	for _, tc := range cases {
		err := policy.Validate(tc.password)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestPasswordPolicyMaxLength(t *testing.T) {
	policy := DefaultPasswordPolicy()
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	long[0] = '1'
	if err := policy.Validate(string(long)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for over-long password, got %v", err)
	}
}
