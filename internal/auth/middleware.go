package auth

import (
	"net/http"

	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/shared"
)

// Middleware resolves bearer tokens into request principals.
type Middleware struct {
	service *Service
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Authenticate attaches the principal to the context when a valid
// bearer token is present. Requests without a token pass through so
// public routes keep working; guards enforce presence.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.service.Resolve(r.Context(), token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests that carry no resolved principal.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.PrincipalFromContext(r.Context()) == nil {
			httpx.RespondError(w, r, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin allows only administrators through.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := shared.PrincipalFromContext(r.Context())
		if principal == nil {
			httpx.RespondError(w, r, httpx.ErrUnauthorized)
			return
		}
		if principal.Role != shared.RoleAdmin {
			httpx.RespondError(w, r, httpx.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireManager allows only admins and purchasing managers through.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := shared.PrincipalFromContext(r.Context())
		if principal == nil {
			httpx.RespondError(w, r, httpx.ErrUnauthorized)
			return
		}
		if !principal.IsManager() {
			httpx.RespondError(w, r, httpx.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
