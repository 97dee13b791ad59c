package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/shared"
)

// Resolver computes a user's effective capability set from stored grants.
type Resolver interface {
	ResolveCapabilities(ctx context.Context, userID uuid.UUID) (CapabilitySet, error)
}

// Middleware wires capability checks into HTTP handlers.
type Middleware struct {
	Resolver Resolver
	Logger   *slog.Logger
}

// RequireAuthenticated rejects requests without a resolved session.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ActorID(r.Context()); !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny ensures the current user holds at least one of the roles.
func (m Middleware) RequireAny(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(roles) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			actorID, ok := ActorID(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			caps, err := m.Resolver.ResolveCapabilities(r.Context(), actorID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz resolve capabilities", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			for _, role := range roles {
				if caps.Has(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// ActorID extracts the authenticated user from the request context.
// Engine services never read this themselves; handlers pass identity in
// explicitly.
func ActorID(ctx context.Context) (uuid.UUID, bool) {
	sess := shared.SessionFromContext(ctx)
	if sess == nil || sess.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return sess.UserID, true
}
