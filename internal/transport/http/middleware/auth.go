package middleware

import (
	"context"
	"net/http"

	"github.com/staysquare/api/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// SessionCookieName is the cookie the session token travels in.
const SessionCookieName = "token"

// IdentityResolver turns a raw session token into the Identity it asserts.
type IdentityResolver interface {
	GetSessionIdentity(ctx context.Context, token string) (*domain.Identity, error)
}

// Session returns middleware that validates the session cookie and injects
// the resolved Identity into the request context.
func Session(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				writeJSONError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			ident, err := resolver.GetSessionIdentity(r.Context(), cookie.Value)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

// WithIdentity returns a context carrying the authenticated Identity.
func WithIdentity(ctx context.Context, ident *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// IdentityFromContext extracts the authenticated Identity from the request context.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(*domain.Identity)
	return ident, ok
}
