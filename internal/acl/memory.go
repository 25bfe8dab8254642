package acl

import "sync"

// permissionKey uniquely identifies a user-document permission.
type permissionKey struct {
	docID  string
	userID string
}

// MemoryStore is an in-memory implementation of the Store interface.
type MemoryStore struct {
	mu          sync.RWMutex
	permissions map[permissionKey]Role
	defaults    map[string]Role
}

// NewMemoryStore creates a new in-memory permission store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		permissions: make(map[permissionKey]Role),
		defaults:    make(map[string]Role),
	}
}

// Grant gives a user a specific role on a document.
func (m *MemoryStore) Grant(docID, userID string, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := permissionKey{docID: docID, userID: userID}
	m.permissions[key] = role

	return nil
}

// Revoke removes a user's explicit permission on a document.
func (m *MemoryStore) Revoke(docID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := permissionKey{docID: docID, userID: userID}

	if _, exists := m.permissions[key]; !exists {
		return ErrPermissionNotFound
	}

	delete(m.permissions, key)

	return nil
}

// SetDefaultRole sets the fallback role for users without explicit grants.
func (m *MemoryStore) SetDefaultRole(docID string, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.defaults[docID] = role

	return nil
}

// GetRole returns the explicit grant, falling back to the document's
// default role.
func (m *MemoryStore) GetRole(docID, userID string) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := permissionKey{docID: docID, userID: userID}

	if role, exists := m.permissions[key]; exists {
		return role, nil
	}

	if role, exists := m.defaults[docID]; exists {
		return role, nil
	}

	return 0, ErrPermissionNotFound
}

// ListPermissions returns all explicit permissions for a document.
func (m *MemoryStore) ListPermissions(docID string) ([]Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Permission

	for key, role := range m.permissions {
		if key.docID == docID {
			result = append(result, Permission{
				DocID:  key.docID,
				UserID: key.userID,
				Role:   role,
			})
		}
	}

	return result, nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
