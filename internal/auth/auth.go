// Package auth verifies bearer tokens and gates routes by role.
package auth

import (
	"context"
	"errors"
)

const (
	RoleUser          = "user"
	RoleAdministrator = "administrator"
)

var ErrInvalidToken = errors.New("invalid token")

// Principal is the authenticated caller attached to a request.
type Principal struct {
	ID   string
	Role string
}

func (p Principal) IsAdministrator() bool { return p.Role == RoleAdministrator }

type Authenticator interface {
	Authenticate(token string) (Principal, error)
}

// Authorize reports whether the principal's role is in allowed.
func Authorize(p Principal, allowed []string) bool {
	for _, role := range allowed {
		if p.Role == role {
			return true
		}
	}
	return false
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdministrator
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
