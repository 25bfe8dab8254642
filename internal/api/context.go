package api

import "context"

type contextKey string

const userIDKey contextKey = "userID"

// UserIDFromContext returns the collaborator identity stored by the
// auth middleware, or the empty string when the request never passed
// through it. This identity is what permission checks and character
// authorship are keyed on.
func UserIDFromContext(ctx context.Context) string {
	if v := ctx.Value(userIDKey); v != nil {
		if userID, ok := v.(string); ok {
			return userID
		}
	}

	return ""
}

// withUserID stores the collaborator identity for downstream handlers.
func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
