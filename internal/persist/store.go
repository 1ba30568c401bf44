// Package persist provides the key/value persistence contract used by the
// stateful table components, plus in-memory and file-backed implementations.
//
// Components never reach for ambient storage directly: a Store is passed in at
// construction and every write goes through it. Store failures are reported to
// the caller but are never allowed to block or roll back an in-memory state
// change, and corrupt stored values are treated as "no persisted state".
package persist

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Store is the minimal key/value contract the table components persist through.
// Values are opaque strings (the components store JSON).
type Store interface {
	// Get returns the stored value for key, or false if absent.
	Get(key string) (string, bool)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
}

// Key composes a storage key from a table id plus optional scope parts.
// Empty parts are skipped: Key("orders", "/admin", "") -> "orders-admin".
func Key(tableID string, parts ...string) string {
	segs := []string{tableID}
	for _, p := range parts {
		p = sanitizeKeyPart(p)
		if p != "" {
			segs = append(segs, p)
		}
	}
	return strings.Join(segs, "-")
}

// sanitizeKeyPart normalizes a key segment: slashes become dots and leading or
// trailing separators are dropped, so URL paths compose into readable keys.
func sanitizeKeyPart(p string) string {
	p = strings.Trim(p, "/")
	p = strings.ReplaceAll(p, "/", ".")
	return strings.TrimSpace(p)
}

// SaveJSON marshals v and stores it under key. Marshal or store failures are
// logged and returned, but callers are expected to keep their in-memory state.
func SaveJSON(s Store, key string, v any) error {
	if s == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal state for %q: %w", key, err)
	}

	if err := s.Set(key, string(data)); err != nil {
		slog.Warn("persist: state write failed", "key", key, "error", err)
		return fmt.Errorf("write state for %q: %w", key, err)
	}

	return nil
}

// LoadJSON reads key and unmarshals it into v. Returns false when the key is
// absent or the stored value is not valid JSON; corrupt data is never fatal.
func LoadJSON(s Store, key string, v any) bool {
	if s == nil {
		return false
	}

	raw, ok := s.Get(key)
	if !ok || raw == "" {
		return false
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		slog.Warn("persist: discarding corrupt state", "key", key, "error", err)
		return false
	}

	return true
}

// MemoryStore is a Store backed by an in-process map. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the stored value for key.
func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key.
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Len returns the number of stored keys. Primarily useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
