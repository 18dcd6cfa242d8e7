// Package keystore provides process-scoped acquisition of signing keys
// for the Forensic Audit Engine, and VerifyChain, a certificate chain and
// revocation check for a key's Entry. The audit engine does not call
// VerifyChain.
package keystore

import (
	"context"
	"crypto/x509"
	"fmt"
	"sync"

	"github.com/wudi/gopnik/cryptoprim"
	"github.com/wudi/gopnik/gopnikerr"
)

// Entry is a single signing identity: a Signer paired with the
// certificate chain that authenticates its public key, if any (a
// self-verifying deployment may carry a nil Chain).
type Entry struct {
	Signer cryptoprim.Signer
	Chain  []*x509.Certificate
}

// KeyStore resolves a signer by key id, scoped to a single process
// lifetime: keys are loaded once at startup (or lazily on first use) and
// held in memory for the process's duration, never persisted by this
// package.
type KeyStore interface {
	// Acquire returns the Entry registered for keyID.
	Acquire(ctx context.Context, keyID string) (Entry, error)
	// Default returns the store's default signing identity, used when
	// the caller has no specific key id preference.
	Default(ctx context.Context) (keyID string, entry Entry, err error)
}

// MemoryStore is a KeyStore backed by an in-process map, the default
// implementation for single-node deployments.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	defaultKey string
}

// NewMemoryStore returns an empty store; use Register to add identities.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Register adds or replaces the entry for signer, deriving its key id
// from the signer's own public key, and returns the derived key id. The
// first registered entry becomes the default.
func (s *MemoryStore) Register(signer cryptoprim.Signer, chain []*x509.Certificate) (string, error) {
	keyID, err := signer.KeyID()
	if err != nil {
		return "", fmt.Errorf("keystore: derive key id: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[keyID] = Entry{Signer: signer, Chain: chain}
	if s.defaultKey == "" {
		s.defaultKey = keyID
	}
	return keyID, nil
}

func (s *MemoryStore) Acquire(_ context.Context, keyID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[keyID]
	if !ok {
		return Entry{}, gopnikerr.NewKeyNotFound(keyID)
	}
	return e, nil
}

func (s *MemoryStore) Default(ctx context.Context) (string, Entry, error) {
	s.mu.RLock()
	defaultKey := s.defaultKey
	s.mu.RUnlock()
	if defaultKey == "" {
		return "", Entry{}, gopnikerr.NewKeyNotFound("<no default registered>")
	}
	e, err := s.Acquire(ctx, defaultKey)
	return defaultKey, e, err
}
