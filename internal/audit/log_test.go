package audit

import (
	"context"
	"testing"

	"forkplace.org/internal/auth"
)

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatalf("expected error for empty event name")
	}
	if err := LogEvent(context.Background(), "auth.signin", nil); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
}

func TestLogEventWithContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = auth.ContextWithIdentity(ctx, auth.Identity{SubjectID: "subj-1"})
	if err := LogEvent(ctx, "authz.denied", map[string]any{"resource": "review"}); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
}

func TestWithRequestIDIgnoresEmpty(t *testing.T) {
	ctx := context.Background()
	if got := WithRequestID(ctx, "   "); got != ctx {
		t.Fatalf("blank request id should not derive a new context")
	}
	if rid := requestIDFromContext(WithRequestID(ctx, "req-2")); rid != "req-2" {
		t.Fatalf("request id = %q", rid)
	}
}
