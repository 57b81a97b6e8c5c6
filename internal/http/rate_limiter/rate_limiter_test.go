package rate_limiter

import (
	"testing"
	"time"
)

func TestLimiterAllowsBurstPerClient(t *testing.T) {
	l := New(0.001, 2)

	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("other clients must have their own bucket")
	}
	if l.Len() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", l.Len())
	}
}

func TestLimiterCleanupDropsIdleClients(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(DefaultIdleTTL + time.Second)
	l.Allow("fresh")

	l.Cleanup()
	if l.Len() != 1 {
		t.Fatalf("expected only the fresh client to remain, got %d", l.Len())
	}

	l.Reset()
	if l.Len() != 0 {
		t.Fatal("expected Reset to forget every client")
	}
}
