package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jayyveer/yarnbykrosh/internal/identity"
)

type ctxKey int

const userKey ctxKey = iota

// Authenticator resolves a bearer token to its account.
type Authenticator interface {
	CurrentUser(ctx context.Context, token string) (*identity.User, error)
}

// AdminGate answers whether a user may enter the back office.
type AdminGate interface {
	Role(ctx context.Context, userID uuid.UUID) (identity.AdminRole, bool, error)
}

// SessionAuth resolves the Authorization header into a user when present.
// Requests without a valid token pass through anonymous so public routes
// keep working; RequireUser is the gate.
func SessionAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.CurrentUser(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := userFrom(r.Context()); !ok {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects users without an admin grant. It layers on top of
// RequireUser ordering in the router, an anonymous request never gets here.
func RequireAdmin(gate AdminGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFrom(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
				return
			}

			_, isAdmin, err := gate.Role(r.Context(), user.ID)
			if err != nil {
				handleDomainError(w, err)
				return
			}
			if !isAdmin {
				respondError(w, http.StatusForbidden, "forbidden", "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func userFrom(ctx context.Context) (*identity.User, bool) {
	user, ok := ctx.Value(userKey).(*identity.User)
	return user, ok
}

// withUser is how tests inject an authenticated caller.
func withUser(ctx context.Context, user *identity.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
