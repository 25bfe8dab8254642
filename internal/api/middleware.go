package api

import "net/http"

const headerUserID = "X-User-Id"

// authMiddleware requires the X-User-Id header and stores the value in
// the request context as the collaborator identity. Every permission
// check and every character's author field trace back to it; requests
// without it are rejected before reaching any document.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerUserID)
		if userID == "" {
			http.Error(w, "missing X-User-ID header", http.StatusUnauthorized)

			return
		}

		ctx := withUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
