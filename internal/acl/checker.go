package acl

import "errors"

// Action classifies what a user is trying to do with a document:
// read its state, write (edit locally or forward remote operations),
// share it, or delete it.
type Action int

const (
	ActionRead Action = iota
	ActionWrite
	ActionShare
	ActionDelete
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionWrite:
		return "write"
	case ActionShare:
		return "share"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Checker answers permission questions for sessions and handlers,
// resolving the user's role (explicit grant or document default)
// against the requested action.
type Checker struct {
	store Store
}

// NewChecker creates a checker over the given permission store.
func NewChecker(store Store) *Checker {
	return &Checker{store: store}
}

// CanPerform reports whether the user's role allows the action. A user
// with no role at all is simply denied, not an error.
func (c *Checker) CanPerform(docID, userID string, action Action) (bool, error) {
	role, err := c.store.GetRole(docID, userID)
	if err != nil {
		if errors.Is(err, ErrPermissionNotFound) {
			return false, nil
		}

		return false, err
	}

	switch action {
	case ActionRead:
		return role.CanRead(), nil
	case ActionWrite:
		return role.CanWrite(), nil
	case ActionShare:
		return role.CanShare(), nil
	case ActionDelete:
		return role.CanDelete(), nil
	default:
		return false, nil
	}
}

// RequirePermission is CanPerform with denial as ErrAccessDenied, for
// callers that want to bail out on the error path.
func (c *Checker) RequirePermission(docID, userID string, action Action) error {
	allowed, err := c.CanPerform(docID, userID, action)
	if err != nil {
		return err
	}

	if !allowed {
		return ErrAccessDenied
	}

	return nil
}
