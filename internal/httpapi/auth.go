package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Authenticate guards the alert-tailing surface with a single static bearer
// token (the operator token from configuration). There is no login flow, no
// session store, and no per-user claims: the core's only external consumer
// is an operator tailing alerts, not a multi-user web UI.
func Authenticate(token string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			presented := bearerToken(r)
			if presented == "" || presented != token {
				logger.Debug("rejected unauthenticated request", zap.String("path", r.URL.Path))
				respondError(w, http.StatusUnauthorized, "MISSING_TOKEN", "a valid bearer token is required")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authedKey{}, true)))
		})
	}
}

type authedKey struct{}

// bearerToken extracts the token from the Authorization header, falling
// back to a query parameter since WebSocket clients cannot set headers from
// a browser EventSource/WebSocket constructor.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
