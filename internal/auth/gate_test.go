package auth

import (
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("demo2025"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	g, err := NewGateFromHash(string(hash))
	if err != nil {
		t.Fatalf("NewGateFromHash: %v", err)
	}
	return g
}

func TestGateStartsLocked(t *testing.T) {
	g := newTestGate(t)
	if g.State() != Locked || g.Unlocked() {
		t.Fatalf("expected locked gate, got %s", g.State())
	}
}

func TestGateTransitions(t *testing.T) {
	g := newTestGate(t)

	if g.TryUnlock("wrong") {
		t.Fatal("wrong passphrase must be rejected")
	}
	if g.State() != Locked {
		t.Fatalf("rejected attempt changed state to %s", g.State())
	}

	if !g.TryUnlock("demo2025") {
		t.Fatal("expected correct passphrase to unlock")
	}
	if g.State() != Unlocked {
		t.Fatalf("expected unlocked, got %s", g.State())
	}

	if g.TryUnlock("wrong") {
		t.Fatal("wrong passphrase accepted while unlocked")
	}
	if g.State() != Unlocked {
		t.Fatal("failed attempt must not relock the gate")
	}

	g.Lock()
	if g.State() != Locked {
		t.Fatalf("expected locked after Lock, got %s", g.State())
	}
}

func TestGateRequiresExactMatch(t *testing.T) {
	g := newTestGate(t)
	for _, secret := range []string{"", "demo2025 ", "DEMO2025", "demo202", "demo2025" + strings.Repeat("x", 80)} {
		if g.TryUnlock(secret) {
			t.Fatalf("secret %q should not unlock", secret)
		}
	}
}

func TestNewGate(t *testing.T) {
	if _, err := NewGate(""); err != ErrEmptyPassphrase {
		t.Fatalf("expected ErrEmptyPassphrase, got %v", err)
	}
	if _, err := NewGate(strings.Repeat("a", 73)); err == nil {
		t.Fatal("expected error for oversized passphrase")
	}
	if _, err := NewGateFromHash("plain-text"); err == nil {
		t.Fatal("expected error for a non-bcrypt hash")
	}

	g, err := NewGate("open-sesame")
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	if !g.TryUnlock("open-sesame") {
		t.Fatal("expected gate to open with its passphrase")
	}
}

func TestGateConcurrentUse(t *testing.T) {
	g := newTestGate(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				g.TryUnlock("demo2025")
			} else {
				g.Lock()
			}
			_ = g.State()
		}(i)
	}
	wg.Wait()
}
