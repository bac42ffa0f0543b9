package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/taskgrove/taskadmin/internal/auth/domain"
	"github.com/taskgrove/taskadmin/internal/auth/store"
	"github.com/taskgrove/taskadmin/pkg/cryptox"
	"github.com/taskgrove/taskadmin/pkg/jwtx"
	"github.com/taskgrove/taskadmin/pkg/slogx"
)

// TokenService issues and refreshes signed token pairs. It borrows the key
// pair from the provider for each operation and keeps no key material of
// its own, so rotations take effect on the next call.
type TokenService struct {
	Keys       *jwtx.FileKeyProvider
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Store      store.Store
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	jwksMu  sync.Mutex
	jwksKid string
	jwks    jwtx.JWKS
}

// CreateToken issues an access+refresh pair for an already verified
// identity. Preconditions run in order and each failure is a distinct
// rejection: the account must exist, be activated, be enabled, and not be
// inside a lockout window. The refresh token embeds a one-way hash of
// clientAddr so it can only be redeemed from the same origin.
func (s *TokenService) CreateToken(ctx context.Context, username, clientAddr string) (domain.TokenPair, error) {
	now := time.Now()

	account, err := s.Store.Accounts().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deleted between the credential check and here; indistinguishable
			// from a bad username on purpose.
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, err
	}

	if err := checkAccountPreconditions(account, now); err != nil {
		return domain.TokenPair{}, err
	}

	assignments, err := s.Store.RoleAssignments().ListByAccount(ctx, account.ID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	roles := make([]jwtx.RoleAssignment, 0, len(assignments))
	for _, ra := range assignments {
		roles = append(roles, jwtx.RoleAssignment{
			OrganizationalUnit: ra.OrganizationalUnit,
			Role:               ra.Role,
		})
	}

	access, err := s.Signer.Sign(jwtx.NewAccessClaims(s.Issuer, jwtx.AccessIdentity{
		Username:   account.Username,
		UID:        account.ID,
		GivenName:  account.GivenName,
		FamilyName: account.FamilyName,
		Email:      account.Email,
		FullAdmin:  account.FullAdmin,
		Roles:      roles,
	}, s.AccessTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	// Same secret hashing primitive as password storage, so the embedded
	// address is never recoverable from a leaked token.
	addressHash, err := cryptox.HashPassword(clientAddr)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.Signer.Sign(jwtx.NewRefreshClaims(s.Issuer, account.Username, addressHash, s.RefreshTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	slogx.FromContext(ctx).Info("issued token pair",
		slog.String("username", account.Username),
		slog.Int64("uid", account.ID))

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
	}, nil
}

// RefreshToken exchanges a refresh token for a brand-new pair. The caller
// must already hold a valid access-token session; principalName is the
// authenticated subject from that session. Checks run in order, each with a
// distinct rejection: signature and expiry (via the verifier), token kind,
// subject binding, then address binding. The old refresh token stays valid
// until its own expiry; there is no server-side revocation.
func (s *TokenService) RefreshToken(ctx context.Context, refreshToken, principalName, clientAddr string) (domain.TokenPair, error) {
	claims, err := s.Verifier.Verify(refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if claims.TokenType != jwtx.TokenTypeRefresh {
		return domain.TokenPair{}, ErrNotRefreshToken
	}
	if claims.SubID == "" || claims.SubID != principalName {
		return domain.TokenPair{}, ErrSubjectMismatch
	}
	if err := cryptox.VerifyPassword(clientAddr, claims.Sec); err != nil {
		slogx.FromContext(ctx).Warn("refresh token redeemed from foreign address",
			slog.String("username", claims.SubID),
			slog.String("client_addr", clientAddr))
		return domain.TokenPair{}, ErrAddressMismatch
	}

	// Minting a fresh pair re-runs the full precondition chain, so an
	// account disabled or locked since issuance cannot refresh.
	return s.CreateToken(ctx, claims.SubID, clientAddr)
}

// JWKSet returns the published verification key set. The serialized set is
// cached per key id and rebuilt whenever the provider reports a new id, so
// a rotation is visible on the next request.
func (s *TokenService) JWKSet() (jwtx.JWKS, error) {
	kid, err := s.Keys.KeyID()
	if err != nil {
		return jwtx.JWKS{}, err
	}

	s.jwksMu.Lock()
	defer s.jwksMu.Unlock()

	if s.jwksKid == kid {
		return s.jwks, nil
	}

	pub, err := s.Keys.PublicKey()
	if err != nil {
		return jwtx.JWKS{}, err
	}

	s.jwks = jwtx.JWKS{Keys: []jwtx.JWK{
		jwtx.NewRSAJWK(kid, "sig", s.Signer.Alg(), pub),
	}}
	s.jwksKid = kid
	return s.jwks, nil
}

// checkAccountPreconditions enforces the ordered activation, enablement and
// lockout gates shared by login and token issuance.
func checkAccountPreconditions(a domain.Account, now time.Time) error {
	if !a.Activated(now) {
		return ErrAccountNotActivated
	}
	if !a.Enabled {
		return ErrAccountDisabled
	}
	if a.Locked(now) {
		return ErrAccountLocked
	}
	return nil
}
