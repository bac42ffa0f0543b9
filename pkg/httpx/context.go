package httpx

import (
	"context"

	"github.com/taskgrove/taskadmin/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUsername    ctxKey = "username"
	CtxKeyAuthorities ctxKey = "authorities"
	CtxKeyClaims      ctxKey = "claims"
)

// ClaimsFromContext returns the verified claims injected by AuthnMiddleware,
// or false when the request is unauthenticated.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

func authoritiesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyAuthorities).([]string); ok {
		return v
	}
	return nil
}
