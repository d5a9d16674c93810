package api

import (
	"testing"
	"time"
)

func TestKeyedLimiterBurst(t *testing.T) {
	limiter := newKeyedLimiter(60, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst should pass", i+1)
		}
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("request beyond burst should be rejected")
	}

	// 其他键不受影响
	if !limiter.Allow("10.0.0.2") {
		t.Fatal("independent key should have its own bucket")
	}
}

func TestKeyedLimiterDefaults(t *testing.T) {
	limiter := newKeyedLimiter(0, 0)
	if !limiter.Allow("k") {
		t.Fatal("first request should always pass")
	}
	if limiter.Allow("k") {
		t.Fatal("burst of one should reject the second request")
	}
}

func TestKeyedLimiterEviction(t *testing.T) {
	limiter := newKeyedLimiter(60, 1)
	limiter.Allow("stale")
	limiter.buckets["stale"].lastSeen = time.Now().Add(-time.Hour)

	limiter.evictIdle(time.Now())
	if _, ok := limiter.buckets["stale"]; ok {
		t.Fatal("idle bucket should be evicted")
	}
}
