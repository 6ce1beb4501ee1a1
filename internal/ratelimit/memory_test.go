package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2026, 7, 1, 10, 0, 5, 0, time.UTC)
	key := ClientKey("verify", "203.0.113.9")

	for i := 0; i < 3; i++ {
		result, errAllow := limiter.Allow(context.Background(), key, 3, now)
		if errAllow != nil {
			t.Fatalf("allow %d: %v", i, errAllow)
		}
		if !result.Allowed {
			t.Fatalf("request %d should pass", i)
		}
		if result.Remaining != 3-i-1 {
			t.Fatalf("request %d remaining = %d", i, result.Remaining)
		}
	}

	result, errAllow := limiter.Allow(context.Background(), key, 3, now.Add(10*time.Second))
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if result.Allowed {
		t.Fatalf("fourth request in the same minute must be rejected")
	}
	if !result.Reset.After(now) {
		t.Fatalf("reset must point past now, got %s", result.Reset)
	}

	// The next minute opens a fresh window.
	result, errAllow = limiter.Allow(context.Background(), key, 3, now.Add(Window))
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if !result.Allowed || result.Remaining != 2 {
		t.Fatalf("expected fresh window, got %+v", result)
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Now()

	for i := 0; i < 2; i++ {
		if result, _ := limiter.Allow(context.Background(), ClientKey("verify", "10.0.0.1"), 2, now); !result.Allowed {
			t.Fatalf("first client blocked early")
		}
	}
	if result, _ := limiter.Allow(context.Background(), ClientKey("verify", "10.0.0.1"), 2, now); result.Allowed {
		t.Fatalf("first client should be exhausted")
	}
	if result, _ := limiter.Allow(context.Background(), ClientKey("verify", "10.0.0.2"), 2, now); !result.Allowed {
		t.Fatalf("second client must have its own budget")
	}
	if result, _ := limiter.Allow(context.Background(), ClientKey("analyze", "10.0.0.1"), 2, now); !result.Allowed {
		t.Fatalf("another route must have its own budget")
	}
}

func TestMemoryLimiter_ZeroLimitAndEmptyKeyPass(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Now()

	if result, _ := limiter.Allow(context.Background(), "k", 0, now); !result.Allowed {
		t.Fatalf("non-positive limit disables the check")
	}
	if result, _ := limiter.Allow(context.Background(), "", 5, now); !result.Allowed {
		t.Fatalf("empty key disables the check")
	}
}

func TestClientKey(t *testing.T) {
	if got := ClientKey(" verify ", " 10.1.2.3 "); got != "verify:10.1.2.3" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := ClientKey("", "10.1.2.3"); got != "" {
		t.Fatalf("expected empty key for blank route, got %q", got)
	}
	if got := ClientKey("verify", ""); got != "" {
		t.Fatalf("expected empty key for blank address, got %q", got)
	}
}
