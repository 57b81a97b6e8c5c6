// Package auth holds the shared-passphrase gate that guards the inventory.
package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type State int

const (
	Locked State = iota
	Unlocked
)

func (s State) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// maxSecretLen is bcrypt's input limit; longer secrets would be compared on
// their prefix only.
const maxSecretLen = 72

var ErrEmptyPassphrase = errors.New("passphrase must not be empty")

// Gate is a two-state lock opened by a single configured passphrase. It starts
// Locked. The passphrase is kept only as a bcrypt hash.
type Gate struct {
	mu    sync.RWMutex
	hash  []byte
	state State
}

func NewGate(passphrase string) (*Gate, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if len(passphrase) > maxSecretLen {
		return nil, fmt.Errorf("passphrase longer than %d bytes", maxSecretLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing passphrase: %w", err)
	}
	return &Gate{hash: hash}, nil
}

// NewGateFromHash builds a gate from a bcrypt hash kept in configuration.
func NewGateFromHash(hash string) (*Gate, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid passphrase hash: %w", err)
	}
	return &Gate{hash: []byte(hash)}, nil
}

// TryUnlock opens the gate when secret matches the passphrase exactly. A wrong
// secret leaves the state untouched.
func (g *Gate) TryUnlock(secret string) bool {
	if secret == "" || len(secret) > maxSecretLen {
		return false
	}
	if bcrypt.CompareHashAndPassword(g.hash, []byte(secret)) != nil {
		return false
	}

	g.mu.Lock()
	g.state = Unlocked
	g.mu.Unlock()
	return true
}

func (g *Gate) Lock() {
	g.mu.Lock()
	g.state = Locked
	g.mu.Unlock()
}

func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Gate) Unlocked() bool {
	return g.State() == Unlocked
}
