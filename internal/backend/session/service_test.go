package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T, secret string) *Service {
	t.Helper()

	svc, err := NewService(secret, time.Hour, NewMemoryStore())
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return svc
}

func TestService_StartAndResolve(t *testing.T) {
	svc := newTestService(t, "secret")
	ctx := context.Background()

	token, err := svc.Start(ctx, Identity{Username: "alice"})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	identity, err := svc.CurrentIdentity(ctx, token)
	if err != nil {
		t.Fatalf("CurrentIdentity error: %v", err)
	}
	if identity.Username != "alice" {
		t.Errorf("expected alice, got %q", identity.Username)
	}
}

func TestService_TokensAreDistinct(t *testing.T) {
	svc := newTestService(t, "secret")
	ctx := context.Background()

	a, err := svc.Start(ctx, Identity{Username: "alice"})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	b, err := svc.Start(ctx, Identity{Username: "alice"})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if a == b {
		t.Error("expected distinct tokens for separate logins")
	}

	if err := svc.End(ctx, a); err != nil {
		t.Fatalf("End error: %v", err)
	}
	if _, err := svc.CurrentIdentity(ctx, b); err != nil {
		t.Errorf("ending one session must not end another: %v", err)
	}
}

func TestService_End(t *testing.T) {
	svc := newTestService(t, "secret")
	ctx := context.Background()

	token, err := svc.Start(ctx, Identity{Username: "alice"})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := svc.End(ctx, token); err != nil {
		t.Fatalf("End error: %v", err)
	}
	if _, err := svc.CurrentIdentity(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after End, got %v", err)
	}

	if err := svc.End(ctx, "garbage"); err != nil {
		t.Errorf("End with unknown token should be a no-op, got %v", err)
	}
}

func TestService_RejectsInvalidTokens(t *testing.T) {
	svc := newTestService(t, "secret")
	other := newTestService(t, "other-secret")
	ctx := context.Background()

	foreign, err := other.Start(ctx, Identity{Username: "alice"})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CurrentIdentity(ctx, tt.token); !errors.Is(err, ErrNoSession) {
				t.Errorf("expected ErrNoSession, got %v", err)
			}
		})
	}
}

func TestService_ExpiredToken(t *testing.T) {
	svc := newTestService(t, "secret")
	ctx := context.Background()

	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }
	token, err := svc.Start(ctx, Identity{Username: "alice"})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}

	svc.now = time.Now
	if _, err := svc.CurrentIdentity(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for expired token, got %v", err)
	}
}

func TestService_RandomSecret(t *testing.T) {
	a := newTestService(t, "")
	b := newTestService(t, "")
	ctx := context.Background()

	token, err := a.Start(ctx, Identity{Username: "alice"})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if _, err := a.CurrentIdentity(ctx, token); err != nil {
		t.Fatalf("expected token to validate with its own service: %v", err)
	}
	if _, err := b.CurrentIdentity(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected token from another random secret to be rejected, got %v", err)
	}
}

func TestNewService_Validation(t *testing.T) {
	if _, err := NewService("s", time.Hour, nil); err == nil {
		t.Error("expected error for nil store")
	}
	if _, err := NewService("s", 0, NewMemoryStore()); err == nil {
		t.Error("expected error for zero ttl")
	}
	svc := newTestService(t, "s")
	if _, err := svc.Start(context.Background(), Identity{}); err == nil {
		t.Error("expected error starting a session without username")
	}
}
