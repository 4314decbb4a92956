package identity

import (
	"testing"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/user"
)

func TestPrincipalCache_SetGet(t *testing.T) {
	t.Parallel()

	cache := newPrincipalCache(time.Minute, 10)
	cache.Set("k1", user.Principal{UserID: "u-1"}, time.Time{})

	principal, ok := cache.Get("k1")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if principal.UserID != "u-1" {
		t.Fatalf("unexpected user id: %s", principal.UserID)
	}
}

func TestPrincipalCache_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.October, 15, 9, 0, 0, 0, time.UTC)
	cache := newPrincipalCache(time.Minute, 10)
	cache.now = func() time.Time { return now }
	cache.Set("k1", user.Principal{UserID: "u-1"}, time.Time{})

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get("k1"); ok {
		t.Fatalf("expected cache miss after expiry")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected expired entry to be dropped")
	}
}

func TestPrincipalCache_MaxEntries(t *testing.T) {
	t.Parallel()

	cache := newPrincipalCache(time.Minute, 2)
	cache.Set("k1", user.Principal{UserID: "u-1"}, time.Time{})
	cache.Set("k2", user.Principal{UserID: "u-2"}, time.Time{})
	cache.Set("k3", user.Principal{UserID: "u-3"}, time.Time{})

	if cache.Len() != 2 {
		t.Fatalf("expected cache bounded at 2 entries, got %d", cache.Len())
	}
	if _, ok := cache.Get("k3"); !ok {
		t.Fatalf("expected newest entry to be kept")
	}
}

func TestPrincipalCache_DisabledWithoutTTL(t *testing.T) {
	t.Parallel()

	cache := newPrincipalCache(-1, 10)
	cache.Set("k1", user.Principal{UserID: "u-1"}, time.Time{})
	if _, ok := cache.Get("k1"); ok {
		t.Fatalf("expected no caching with negative ttl")
	}
}

func TestPrincipalCache_TokenExpiryCapsTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.October, 15, 9, 0, 0, 0, time.UTC)
	cache := newPrincipalCache(time.Hour, 10)
	cache.now = func() time.Time { return now }

	cache.Set("short", user.Principal{UserID: "u-1"}, now.Add(time.Minute))
	cache.Set("gone", user.Principal{UserID: "u-2"}, now.Add(-time.Second))

	if _, ok := cache.Get("gone"); ok {
		t.Fatalf("expected already expired token not to be cached")
	}
	if _, ok := cache.Get("short"); !ok {
		t.Fatalf("expected hit before token exp")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get("short"); ok {
		t.Fatalf("expected miss after token exp even though ttl has not elapsed")
	}
}

func TestPrincipalCache_EvictsSoonestExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.October, 15, 9, 0, 0, 0, time.UTC)
	cache := newPrincipalCache(time.Hour, 2)
	cache.now = func() time.Time { return now }

	cache.Set("late", user.Principal{UserID: "u-1"}, time.Time{})
	cache.Set("soon", user.Principal{UserID: "u-2"}, now.Add(time.Minute))
	cache.Set("new", user.Principal{UserID: "u-3"}, time.Time{})

	if _, ok := cache.Get("soon"); ok {
		t.Fatalf("expected entry closest to expiry to be evicted")
	}
	if _, ok := cache.Get("late"); !ok {
		t.Fatalf("expected longer lived entry to survive")
	}
}
