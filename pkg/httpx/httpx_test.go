package httpx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/taskgrove/taskadmin/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestClientAddress(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "transport peer only",
			remoteAddr: "192.0.2.10:54321",
			want:       "192.0.2.10",
		},
		{
			name:       "x-forwarded-for wins",
			remoteAddr: "192.0.2.10:54321",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 192.0.2.1"},
			want:       "203.0.113.5",
		},
		{
			name:       "single x-forwarded-for entry",
			remoteAddr: "192.0.2.10:54321",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5"},
			want:       "203.0.113.5",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "192.0.2.10:54321",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "unparseable remote addr returned verbatim",
			remoteAddr: "unix-socket",
			want:       "unix-socket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.ClientAddress(r))
		})
	}
}

func TestChain_OrderIsOutsideIn(t *testing.T) {
	var order []string
	mk := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mk("outer"), mk("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRequireAnyAuthority(t *testing.T) {
	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
		httpx.RequireAnyAuthority("ADMIN", "FULL_ADMIN"),
	)

	serve := func(authorities []string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if authorities != nil {
			ctx := context.WithValue(r.Context(), httpx.CtxKeyAuthorities, authorities)
			r = r.WithContext(ctx)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		return rec
	}

	require.Equal(t, http.StatusNoContent, serve([]string{"ADMIN"}).Code)
	require.Equal(t, http.StatusNoContent, serve([]string{"TUTOR", "FULL_ADMIN"}).Code)

	rec := serve([]string{"TUTOR"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "insufficient_scope")

	require.Equal(t, http.StatusForbidden, serve(nil).Code)
}

func TestRateLimit_Blocks(t *testing.T) {
	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
		httpx.RateLimitByIP(httpx.RateLimitConfig{
			RequestsPerWindow: 2,
			Window:            time.Minute,
			Burst:             2,
		}),
	)

	serve := func(addr string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr + ":12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		return rec.Code
	}

	require.Equal(t, http.StatusNoContent, serve("192.0.2.1"))
	require.Equal(t, http.StatusNoContent, serve("192.0.2.1"))
	require.Equal(t, http.StatusTooManyRequests, serve("192.0.2.1"))

	// Other addresses have their own bucket
	require.Equal(t, http.StatusNoContent, serve("192.0.2.2"))
}
