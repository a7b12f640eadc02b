package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FORKPLACE_ACCESS_SECRET", "access-secret")
	t.Setenv("FORKPLACE_REFRESH_SECRET", "refresh-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.AccessTTL != 10*time.Minute || cfg.RefreshTTL != 720*time.Hour {
		t.Fatalf("TTL defaults wrong: %v / %v", cfg.AccessTTL, cfg.RefreshTTL)
	}
	if cfg.RefreshCookieName != "forkplace_refresh" {
		t.Fatalf("cookie name = %q", cfg.RefreshCookieName)
	}
	if cfg.PasswordMinLength != 8 || cfg.PasswordMaxLength != 72 {
		t.Fatalf("password bounds: %d..%d", cfg.PasswordMinLength, cfg.PasswordMaxLength)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("FORKPLACE_ACCESS_SECRET", "")
	t.Setenv("FORKPLACE_REFRESH_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without secrets")
	}
}

func TestLoadRejectsSharedSecret(t *testing.T) {
	t.Setenv("FORKPLACE_ACCESS_SECRET", "same")
	t.Setenv("FORKPLACE_REFRESH_SECRET", "same")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for identical secrets")
	}
}

func TestLoadRejectsBadPasswordBounds(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FORKPLACE_PASSWORD_MIN", "20")
	t.Setenv("FORKPLACE_PASSWORD_MAX", "10")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for inverted bounds")
	}
}

func TestLoadRejectsBadPattern(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FORKPLACE_PASSWORD_PATTERN", "([")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid pattern")
	}
}

func TestCompilePasswordPattern(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FORKPLACE_PASSWORD_PATTERN", `^[a-z0-9]+$`)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	re := cfg.CompilePasswordPattern()
	if re == nil || !re.MatchString("abc123") || re.MatchString("ABC") {
		t.Fatalf("pattern compiled incorrectly")
	}

	cfg.PasswordPattern = ""
	if cfg.CompilePasswordPattern() != nil {
		t.Fatalf("empty pattern must compile to nil")
	}
}
