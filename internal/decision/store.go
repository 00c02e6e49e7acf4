// Package decision persists NLI classifier decisions keyed by query hash,
// so interrupted or repeated evaluation runs reuse classifications instead
// of paying for model inference again.
package decision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Decision is one stored classifier verdict.
type Decision struct {
	Entailed  bool      `json:"entailed"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// Store provides idempotent persistence of classifier decisions.
type Store interface {
	// Get retrieves a decision by query key. Returns nil if not found.
	Get(ctx context.Context, key string) (*Decision, error)

	// Set stores a decision with TTL. First write wins.
	Set(ctx context.Context, key string, d *Decision, ttl time.Duration) error

	// Close releases resources.
	Close() error
}

// Key derives the store key for an NLI query string.
func Key(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}

// MemoryStore is an in-memory decision store with optional file snapshot,
// persisted on Close so sequential local runs can resume.
type MemoryStore struct {
	mu       sync.RWMutex
	store    map[string]*entry
	snapshot string
}

type entry struct {
	Decision  *Decision `json:"decision"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewMemoryStore creates an in-memory store. snapshotPath may be empty to
// disable persistence.
func NewMemoryStore(snapshotPath string) *MemoryStore {
	ms := &MemoryStore{
		store:    make(map[string]*entry),
		snapshot: snapshotPath,
	}
	if snapshotPath != "" {
		ms.loadSnapshot()
	}
	return ms
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Decision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.store[key]
	if !ok {
		return nil, nil
	}
	if time.Now().After(e.ExpiresAt) {
		return nil, nil // expired
	}
	return e.Decision, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, d *Decision, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// First write wins
	if e, exists := m.store[key]; exists && time.Now().Before(e.ExpiresAt) {
		return nil
	}

	m.store[key] = &entry{
		Decision:  d,
		ExpiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *MemoryStore) Close() error {
	if m.snapshot != "" {
		return m.saveSnapshot()
	}
	return nil
}

func (m *MemoryStore) loadSnapshot() error {
	data, err := os.ReadFile(m.snapshot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // no snapshot yet
		}
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var snapshot map[string]*entry
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	now := time.Now()
	for k, v := range snapshot {
		if now.Before(v.ExpiresAt) {
			m.store[k] = v
		}
	}
	return nil
}

func (m *MemoryStore) saveSnapshot() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	toSave := make(map[string]*entry)
	for k, v := range m.store {
		if now.Before(v.ExpiresAt) {
			toSave[k] = v
		}
	}

	data, err := json.MarshalIndent(toSave, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.snapshot, data, 0600)
}
