package acl

// Role is a user's access level on a shared document. Write access
// covers both local edits and operations forwarded from the user's
// other replicas.
type Role int

const (
	// Viewer can read the document and its authorship segments.
	Viewer Role = iota
	// Editor can additionally submit edits and forward operations.
	Editor
	// Owner has full control: read, write, share, and delete.
	Owner
)

// String returns the string representation of the role.
func (r Role) String() string {
	switch r {
	case Viewer:
		return "viewer"
	case Editor:
		return "editor"
	case Owner:
		return "owner"
	default:
		return "unknown"
	}
}

// CanRead returns true if the role allows reading.
func (r Role) CanRead() bool {
	return r >= Viewer
}

// CanWrite returns true if the role allows writing.
func (r Role) CanWrite() bool {
	return r >= Editor
}

// CanShare returns true if the role allows sharing.
func (r Role) CanShare() bool {
	return r >= Owner
}

// CanDelete returns true if the role allows deletion.
func (r Role) CanDelete() bool {
	return r >= Owner
}

// Permission is one explicit grant: a user's role on one document.
type Permission struct {
	DocID  string
	UserID string
	Role   Role
}
