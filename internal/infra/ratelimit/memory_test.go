package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_WindowRollover(t *testing.T) {
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(context.Background(), "route:get", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if decision.Remaining != 3-(i+1) {
			t.Fatalf("request %d: expected remaining %d, got %d", i, 3-(i+1), decision.Remaining)
		}
	}

	decision, err := limiter.Allow(context.Background(), "route:get", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if decision.Allowed {
		t.Fatal("fourth request in the window should be denied")
	}
	if decision.ResetAt.IsZero() {
		t.Fatal("denied decision should carry the window end")
	}

	now = now.Add(2 * time.Minute)
	decision, err = limiter.Allow(context.Background(), "route:get", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow after rollover: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("expected a fresh window after the old one expired")
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(nil)

	if decision, _ := limiter.Allow(context.Background(), "subject:a", 1, time.Minute); !decision.Allowed {
		t.Fatal("first request for subject a should pass")
	}
	if decision, _ := limiter.Allow(context.Background(), "subject:a", 1, time.Minute); decision.Allowed {
		t.Fatal("second request for subject a should be denied")
	}
	if decision, _ := limiter.Allow(context.Background(), "subject:b", 1, time.Minute); !decision.Allowed {
		t.Fatal("subject b should be unaffected by subject a's window")
	}
}

func TestMemoryLimiter_ZeroLimitDisables(t *testing.T) {
	limiter := NewMemoryLimiter(nil)
	decision, err := limiter.Allow(context.Background(), "route:get", 0, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("zero limit should disable limiting")
	}
}
