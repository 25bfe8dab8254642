package acl

import "errors"

// Common errors.
var (
	ErrPermissionNotFound = errors.New("permission not found")
	ErrAccessDenied       = errors.New("access denied")
)

// Store defines the interface for persisting document permissions.
type Store interface {
	// Grant gives a user a specific role on a document.
	// If the user already has a permission, it is replaced.
	Grant(docID, userID string, role Role) error

	// Revoke removes a user's explicit permission on a document.
	// Returns ErrPermissionNotFound if no explicit permission exists.
	Revoke(docID, userID string) error

	// SetDefaultRole sets the role every user without an explicit grant
	// gets on the document. Used for open collaborative documents.
	SetDefaultRole(docID string, role Role) error

	// GetRole returns the user's role for a document: the explicit grant
	// if one exists, otherwise the document's default role.
	// Returns ErrPermissionNotFound if neither exists.
	GetRole(docID, userID string) (Role, error)

	// ListPermissions returns all explicit permissions for a document.
	ListPermissions(docID string) ([]Permission, error)
}
