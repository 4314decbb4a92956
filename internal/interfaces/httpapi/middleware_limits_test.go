package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/user"
)

func TestRateLimiter_SweepsIdleVisitors(t *testing.T) {
	now := time.Date(2025, time.October, 15, 9, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(RateLimitConfig{RPS: 1, Burst: 1})
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("198.51.100.1") {
		t.Fatalf("first request must pass")
	}
	if limiter.Allow("198.51.100.1") {
		t.Fatalf("second request within the same instant must be limited")
	}
	if !limiter.Allow("198.51.100.2") {
		t.Fatalf("other visitors have their own bucket")
	}

	now = now.Add(visitorIdleTTL + time.Second)
	limiter.Allow("198.51.100.3")
	if got := limiter.Len(); got != 1 {
		t.Fatalf("expected idle visitors swept, %d left", got)
	}
}

func TestClientAddress(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	if got := clientAddress(req); got != "203.0.113.7" {
		t.Fatalf("remote addr: got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")
	if got := clientAddress(req); got != "198.51.100.9" {
		t.Fatalf("forwarded: got %q", got)
	}
}

func TestRequireAuth_DerivesElevatedActor(t *testing.T) {
	verifier := stubVerifier{
		"staff": {UserID: "s1", Roles: []string{" STAFF "}},
		"plain": {UserID: "p1", Roles: []string{"member"}},
		"empty": {Roles: []string{"admin"}},
	}

	var seen []bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromContext(r.Context())
		if !ok {
			t.Fatalf("actor missing from context")
		}
		if _, ok := principalFromContext(r.Context()); !ok {
			t.Fatalf("principal missing from context")
		}
		seen = append(seen, actor.Elevated)
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAuth(verifier, []string{"admin", "staff"}, next)

	for _, token := range []string{"staff", "plain"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/me/lifetime", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("token %s: expected 204, got %d", token, rec.Code)
		}
	}
	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Fatalf("unexpected elevation flags: %v", seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/me/lifetime", nil)
	req.Header.Set("Authorization", "Bearer empty")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("principal without subject: expected 401, got %d", rec.Code)
	}
}

func TestWithPrincipal_ActorMirrorsPrincipal(t *testing.T) {
	ctx := withPrincipal(context.Background(), user.Principal{UserID: "u1", Roles: []string{"admin"}}, nil)
	actor, ok := actorFromContext(ctx)
	if !ok || actor.UserID != "u1" || actor.Elevated {
		t.Fatalf("no elevated roles configured means no elevation, got %+v", actor)
	}
}
