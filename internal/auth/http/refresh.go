package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/taskgrove/taskadmin/internal/auth/service"
	"github.com/taskgrove/taskadmin/pkg/httpx"
	"github.com/taskgrove/taskadmin/pkg/jwtx"
	"github.com/taskgrove/taskadmin/pkg/slogx"
)

// maxRefreshBodySize bounds the raw refresh-token body.
const maxRefreshBodySize = 8 << 10

// RefreshHandler exchanges a refresh token for a new token pair. The body
// is the raw refresh-token string; the caller must also present a valid
// access token, which AuthnMiddleware has already verified by the time this
// handler runs.
type RefreshHandler struct {
	TokenService *service.TokenService
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRefreshBodySize))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "unreadable request body")
		return
	}
	refreshToken := strings.TrimSpace(string(body))
	if refreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh token is required")
		return
	}

	pair, err := h.TokenService.RefreshToken(ctx, refreshToken, claims.Subject, httpx.ClientAddress(r))
	if err != nil {
		log.Info("refresh rejected", "username", claims.Subject, "reason", err)
		writeRefreshError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

// writeRefreshError collapses all token rejections into one generic class;
// the distinct reasons exist server-side for abuse detection only.
func writeRefreshError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jwtx.ErrMalformed),
		errors.Is(err, jwtx.ErrInvalidSig),
		errors.Is(err, jwtx.ErrIssuer),
		errors.Is(err, jwtx.ErrExpired),
		errors.Is(err, jwtx.ErrNotYetValid),
		errors.Is(err, jwtx.ErrInvalidClaim),
		errors.Is(err, service.ErrNotRefreshToken),
		errors.Is(err, service.ErrSubjectMismatch),
		errors.Is(err, service.ErrAddressMismatch),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountNotActivated),
		errors.Is(err, service.ErrAccountDisabled),
		errors.Is(err, service.ErrAccountLocked):
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_credentials", "Refresh token was rejected.")
	default:
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Unexpected error.")
	}
}
