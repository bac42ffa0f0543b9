package http

import (
	"net/http"

	"github.com/taskgrove/taskadmin/internal/auth/service"
	"github.com/taskgrove/taskadmin/pkg/httpx"
	"github.com/taskgrove/taskadmin/pkg/slogx"
)

// JWKSHandler exposes the JSON Web Key Set for public key discovery.
func JWKSHandler(tokens *service.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := tokens.JWKSet()
		if err != nil {
			slogx.FromContext(r.Context()).Error("failed to build key set", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "key set unavailable")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, jwks)
	}
}
