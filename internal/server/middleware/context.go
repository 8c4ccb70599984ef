package middleware

import (
	"context"

	"github.com/gosuda/taskhub/internal/tenancy"
)

type contextKey string

const contextKeyPrincipal contextKey = "principal"

// WithPrincipal stores the authenticated caller in ctx.
func WithPrincipal(ctx context.Context, p tenancy.Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

func PrincipalFromContext(ctx context.Context) (tenancy.Principal, bool) {
	v, ok := ctx.Value(contextKeyPrincipal).(tenancy.Principal)
	return v, ok
}
