package session

import (
	"context"
	"sync"
)

// The four persisted keys. Values are strings; KeySessionActive is
// presence-tested only.
const (
	// KeyCredential holds the opaque bearer token.
	KeyCredential = "access_token"
	// KeyUserSnapshot holds the serialized User.
	KeyUserSnapshot = "user"
	// KeySecondaryParentID holds the secondary guardian id, present only
	// when the role is parent and the authority supplied one.
	KeySecondaryParentID = "secondary_parent_id"
	// KeySessionActive distinguishes "never logged in" from "logged out" on
	// restore.
	KeySessionActive = "session_active"
)

// sessionActiveMarker is the literal written under KeySessionActive.
const sessionActiveMarker = "1"

// PurgeSessionKeys removes all four persisted keys. Best-effort: the first
// delete error is returned but the remaining keys are still attempted, so a
// partial purge cannot strand a credential behind a failed user delete.
func PurgeSessionKeys(ctx context.Context, store Store) error {
	var firstErr error
	for _, key := range []string{KeyCredential, KeyUserSnapshot, KeySecondaryParentID, KeySessionActive} {
		if err := store.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// MemoryStore is an in-process Store used in tests and as the default when
// no durable adapter is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

// Get implements Store. Missing keys read back as "".
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

var _ Store = (*MemoryStore)(nil)
