package httpx

import (
	"net/http"
	"strings"
)

// RequireAnyAuthority gates a route on the generic authority list derived
// from the caller's claims: the caller must hold at least one of the listed
// authorities. Unit-level scoping is not checked here; handlers re-derive
// it from the claims per request.
func RequireAnyAuthority(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, a := range required {
		want[a] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, a := range authoritiesFromCtx(r.Context()) {
				if _, ok := want[a]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeBearerAuthorityError(w, required...)
		})
	}
}

// RFC 6750-style error response for insufficient authority.
func writeBearerAuthorityError(w http.ResponseWriter, required ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("insufficient_scope"))
}
