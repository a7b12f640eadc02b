package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerifyAccess(t *testing.T) {
	issuer := newTestIssuer(t)

	token, exp, err := issuer.IssueAccess("subj-1", []string{"customer", "owner"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", exp)
	}

	claims, err := issuer.Verify(token, TokenAccess)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "subj-1" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if len(claims.Roles) != 2 {
		t.Fatalf("roles not preserved: %v", claims.Roles)
	}
	if claims.TokenType != string(TokenAccess) {
		t.Fatalf("unexpected token type %q", claims.TokenType)
	}
}

func TestIssueAndVerifyRefresh(t *testing.T) {
	issuer := newTestIssuer(t)

	token, _, err := issuer.IssueRefresh("subj-2")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	claims, err := issuer.Verify(token, TokenRefresh)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "subj-2" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if len(claims.Roles) != 0 {
		t.Fatalf("refresh token must not carry roles: %v", claims.Roles)
	}
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	issuer := newTestIssuer(t)

	access, _, err := issuer.IssueAccess("subj-3", nil)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	// Access tokens are signed with a different secret than refresh
	// tokens, so cross-verification must fail.
	if _, err := issuer.Verify(access, TokenRefresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	refresh, _, err := issuer.IssueRefresh("subj-3")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if _, err := issuer.Verify(refresh, TokenAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	issuer := newTestIssuer(t)

	token, _, err := issuer.IssueAccess("subj-4", nil)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	issuer.WithClock(func() time.Time { return time.Now().Add(2 * time.Minute) })
	if _, err := issuer.Verify(token, TokenAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	issuer := newTestIssuer(t)

	for _, raw := range []string{"", "   ", "not-a-token", "a.b"} {
		if _, err := issuer.Verify(raw, TokenAccess); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("Verify(%q): expected ErrTokenMalformed, got %v", raw, err)
		}
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	issuer := newTestIssuer(t)

	token, _, err := issuer.IssueAccess("subj-5", nil)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	last := byte('A')
	if token[len(token)-1] == last {
		last = 'B'
	}
	tampered := token[:len(token)-1] + string(last)
	if _, err := issuer.Verify(tampered, TokenAccess); err == nil {
		t.Fatalf("tampered token verified")
	}
}

func TestNewIssuerRequiresDistinctSecrets(t *testing.T) {
	_, err := NewIssuer(IssuerConfig{AccessSecret: "same", RefreshSecret: "same"})
	if err == nil {
		t.Fatalf("expected error for identical secrets")
	}
	_, err = NewIssuer(IssuerConfig{AccessSecret: "", RefreshSecret: "only-one"})
	if err == nil {
		t.Fatalf("expected error for missing secret")
	}
}
