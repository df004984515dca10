package session

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/saptapadi/admin-gateway/rbac"
)

// MemoryStore is an in-memory Store. Sessions do not survive restarts, so
// it is mainly useful in tests and as a fallback when no persistent path is
// configured.
type MemoryStore struct {
	mu   sync.RWMutex
	sess Session
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Read() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess
}

func (m *MemoryStore) Write(pair TokenPair) error {
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return errors.New("[MemoryStore.Write] tokens are issued as a pair")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.AccessToken = pair.AccessToken
	m.sess.RefreshToken = pair.RefreshToken
	return nil
}

func (m *MemoryStore) SetIdentity(identity Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.Identity = identity
	m.sess.Role = rbac.ParseRole(identity.Role)
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = Session{}
	return nil
}

func (m *MemoryStore) Role() rbac.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess.Role
}
