package notifier

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToMax(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{MaxPerWindow: 3, Window: time.Minute, Enabled: true})
	now := time.Now()

	for i := 0; i < 3; i++ {
		if !limiter.AllowAt(now) {
			t.Fatalf("send %d denied, want allowed", i)
		}
	}
	if limiter.AllowAt(now) {
		t.Fatal("send 4 allowed, want denied")
	}

	stats := limiter.Stats()
	if stats.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", stats.Dropped)
	}
	if stats.CurrentCount != 3 {
		t.Errorf("current = %d, want 3", stats.CurrentCount)
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{MaxPerWindow: 2, Window: time.Minute, Enabled: true})
	now := time.Now()

	limiter.AllowAt(now)
	limiter.AllowAt(now)
	if limiter.AllowAt(now.Add(30 * time.Second)) {
		t.Fatal("allowed within full window")
	}
	if !limiter.AllowAt(now.Add(61 * time.Second)) {
		t.Fatal("denied after window slid")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{MaxPerWindow: 1, Window: time.Minute, Enabled: false})
	now := time.Now()

	for i := 0; i < 10; i++ {
		if !limiter.AllowAt(now) {
			t.Fatalf("disabled limiter denied send %d", i)
		}
	}
}

func TestRateLimiterReset(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{MaxPerWindow: 1, Window: time.Minute, Enabled: true})
	now := time.Now()

	limiter.AllowAt(now)
	if limiter.AllowAt(now) {
		t.Fatal("second send allowed")
	}
	limiter.Reset()
	if !limiter.AllowAt(now) {
		t.Fatal("denied after reset")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{Enabled: true})
	stats := limiter.Stats()
	if stats.MaxPerWindow != 10 {
		t.Errorf("max = %d, want 10", stats.MaxPerWindow)
	}
	if stats.Window != time.Minute {
		t.Errorf("window = %v, want 1m", stats.Window)
	}
}
