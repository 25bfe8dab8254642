package acl_test

import (
	"errors"
	"testing"

	"github.com/serroba/crdt-docs/internal/acl"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GrantAndGetRole(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()

	require.NoError(t, store.Grant("doc1", "user1", acl.Editor))

	role, err := store.GetRole("doc1", "user1")
	require.NoError(t, err)

	if role != acl.Editor {
		t.Errorf("expected editor, got %s", role)
	}
}

func TestMemoryStore_Grant_ReplacesExisting(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()

	require.NoError(t, store.Grant("doc1", "user1", acl.Viewer))
	require.NoError(t, store.Grant("doc1", "user1", acl.Owner))

	role, err := store.GetRole("doc1", "user1")
	require.NoError(t, err)

	if role != acl.Owner {
		t.Errorf("expected owner, got %s", role)
	}
}

func TestMemoryStore_GetRole_NotFound(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()

	_, err := store.GetRole("doc1", "user1")
	if !errors.Is(err, acl.ErrPermissionNotFound) {
		t.Errorf("expected ErrPermissionNotFound, got %v", err)
	}
}

func TestMemoryStore_GetRole_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()

	require.NoError(t, store.SetDefaultRole("doc1", acl.Editor))

	// No explicit grant: the document default applies.
	role, err := store.GetRole("doc1", "stranger")
	require.NoError(t, err)

	if role != acl.Editor {
		t.Errorf("expected editor, got %s", role)
	}

	// An explicit grant overrides the default, even downward.
	require.NoError(t, store.Grant("doc1", "limited", acl.Viewer))

	role, err = store.GetRole("doc1", "limited")
	require.NoError(t, err)

	if role != acl.Viewer {
		t.Errorf("expected viewer, got %s", role)
	}
}

func TestMemoryStore_Revoke(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()

	require.NoError(t, store.Grant("doc1", "user1", acl.Editor))
	require.NoError(t, store.Revoke("doc1", "user1"))

	_, err := store.GetRole("doc1", "user1")
	if !errors.Is(err, acl.ErrPermissionNotFound) {
		t.Errorf("expected ErrPermissionNotFound, got %v", err)
	}

	if err := store.Revoke("doc1", "user1"); !errors.Is(err, acl.ErrPermissionNotFound) {
		t.Errorf("expected ErrPermissionNotFound, got %v", err)
	}
}

func TestMemoryStore_Revoke_LeavesDefaultIntact(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()

	require.NoError(t, store.SetDefaultRole("doc1", acl.Viewer))
	require.NoError(t, store.Grant("doc1", "user1", acl.Owner))
	require.NoError(t, store.Revoke("doc1", "user1"))

	role, err := store.GetRole("doc1", "user1")
	require.NoError(t, err)

	if role != acl.Viewer {
		t.Errorf("expected fallback to viewer, got %s", role)
	}
}

func TestMemoryStore_ListPermissions(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()

	require.NoError(t, store.Grant("doc1", "user1", acl.Owner))
	require.NoError(t, store.Grant("doc1", "user2", acl.Viewer))
	require.NoError(t, store.Grant("doc2", "user1", acl.Editor))

	perms, err := store.ListPermissions("doc1")
	require.NoError(t, err)

	if len(perms) != 2 {
		t.Errorf("expected 2 permissions, got %d", len(perms))
	}
}
