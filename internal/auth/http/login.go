package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskgrove/taskadmin/internal/auth/service"
	"github.com/taskgrove/taskadmin/pkg/httpx"
	"github.com/taskgrove/taskadmin/pkg/slogx"
)

// LoginRequest is the credential login body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler authenticates a username/password pair and returns a token
// pair. Unknown usernames and wrong passwords collapse into one rejection
// class so callers cannot enumerate accounts.
type LoginHandler struct {
	AuthService *service.AuthService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	pair, err := h.AuthService.Login(ctx, req.Username, req.Password, httpx.ClientAddress(r))
	if err != nil {
		writeLoginError(w, err)
		return
	}

	log.Info("login succeeded", "username", req.Username)
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// writeLoginError maps service rejections onto the wire. Bad username and
// bad password collapse into one class to avoid enumeration; locked and
// disabled are distinguishable so callers know not to retry, with
// not-yet-activated presented as the locked class.
func writeLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrTooManyAttempts):
		httpx.WriteError(w, http.StatusTooManyRequests,
			"too_many_attempts", "Too many failed attempts. Please try again later.")
	case errors.Is(err, service.ErrAccountLocked),
		errors.Is(err, service.ErrAccountNotActivated):
		httpx.WriteError(w, http.StatusUnauthorized,
			"account_locked", "Account is locked or not yet activated.")
	case errors.Is(err, service.ErrAccountDisabled):
		httpx.WriteError(w, http.StatusUnauthorized,
			"account_disabled", "Account is disabled.")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_credentials", "Invalid username or password.")
	default:
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Unexpected error.")
	}
}
