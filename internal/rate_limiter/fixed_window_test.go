package ratelimiter

import (
	"testing"
	"time"

	"github.com/udid-foundation/udid-chain/internal/config"
)

func TestFixedWindowLimits(t *testing.T) {
	rl := NewRateLimiter(config.RateLimiterConfig{
		RequestsPerTimeFrame: 3,
		TimeFrame:            time.Minute,
		Enabled:              true,
	}, nil)

	for i := 0; i < 3; i++ {
		if allowed, _ := rl.Allow("10.0.0.1"); !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, retryAfter := rl.Allow("10.0.0.1")
	if allowed {
		t.Error("fourth request should be denied")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Errorf("retryAfter out of range: %v", retryAfter)
	}

	// Other clients keep their own counters.
	if allowed, _ := rl.Allow("10.0.0.2"); !allowed {
		t.Error("separate client should be allowed")
	}
}

func TestFixedWindowResets(t *testing.T) {
	rl := NewRateLimiter(config.RateLimiterConfig{
		RequestsPerTimeFrame: 1,
		TimeFrame:            10 * time.Millisecond,
		Enabled:              true,
	}, nil)

	if allowed, _ := rl.Allow("client"); !allowed {
		t.Fatal("first request should be allowed")
	}
	if allowed, _ := rl.Allow("client"); allowed {
		t.Fatal("second request in window should be denied")
	}

	time.Sleep(15 * time.Millisecond)

	if allowed, _ := rl.Allow("client"); !allowed {
		t.Error("request after window reset should be allowed")
	}
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	rl := NewRateLimiter(config.RateLimiterConfig{
		RequestsPerTimeFrame: 1,
		TimeFrame:            time.Minute,
		Enabled:              false,
	}, nil)

	for i := 0; i < 10; i++ {
		if allowed, _ := rl.Allow("client"); !allowed {
			t.Fatalf("disabled limiter denied request %d", i+1)
		}
	}
}
