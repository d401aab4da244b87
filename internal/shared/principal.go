package shared

import "context"

// Roles known to the authorization layer.
const (
	RoleAdmin             = "admin"
	RolePurchasingManager = "purchasing_manager"
	RoleBuyer             = "buyer"
)

// Principal describes the authenticated caller of a request.
type Principal struct {
	ID         int64
	Username   string
	Email      string
	Role       string
	Categories []string
}

// IsManager reports whether the principal may perform manager-level mutations.
func (p *Principal) IsManager() bool {
	return p != nil && (p.Role == RoleAdmin || p.Role == RolePurchasingManager)
}

// CategoryScope returns the article categories the principal is restricted to.
// A nil result means unrestricted visibility.
func (p *Principal) CategoryScope() []string {
	if p == nil || p.Role != RoleBuyer {
		return nil
	}
	return p.Categories
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
