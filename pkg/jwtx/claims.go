package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. The access token is deliberately short-lived: a claim
// read from a valid signature is authoritative until exp, there is no
// server-side revocation.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenTypeRefresh marks refresh tokens so they can never be replayed as
// access tokens (and vice versa).
const TokenTypeRefresh = "refresh"

// Role values embedded in the roles claim. Roles are always granted per
// organizational unit; the separate full_admin flag is the only global
// privilege.
const (
	RoleAdmin      = "ADMIN"
	RoleInstructor = "INSTRUCTOR"
	RoleTutor      = "TUTOR"
)

// RoleAssignment is one (organizational unit, role) pair in the roles claim.
// It is a tagged struct rather than a loose map so a signed-but-malformed
// payload fails deserialization instead of panicking on a cast downstream.
type RoleAssignment struct {
	OrganizationalUnit int64  `json:"organizationalUnit"`
	Role               string `json:"role"`
}

// Claims is the signed claim set for both access and refresh tokens.
// Access tokens carry the identity and role fields; refresh tokens carry
// TokenType, SubID and Sec instead.
type Claims struct {
	jwt.RegisteredClaims

	/* Access token fields */

	// UID is the durable integer account identifier.
	UID int64 `json:"uid,omitempty"`

	GivenName         string `json:"given_name,omitempty"`
	FamilyName        string `json:"family_name,omitempty"`
	Email             string `json:"email,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`

	// FullAdmin bypasses all organizational-unit scoping downstream.
	FullAdmin bool `json:"full_admin,omitempty"`

	// Roles is the full role-assignment list embedded at issuance.
	Roles []RoleAssignment `json:"roles,omitempty"`

	/* Refresh token fields */

	// TokenType distinguishes refresh tokens from access tokens.
	TokenType string `json:"token_type,omitempty"`

	// SubID is the username the refresh token was issued for.
	SubID string `json:"sub_id,omitempty"`

	// Sec is a one-way hash of the client network address that requested
	// the refresh token. Redemption from a different address fails.
	Sec string `json:"sec,omitempty"`
}

// AccessIdentity is everything NewAccessClaims needs to know about the
// authenticated account.
type AccessIdentity struct {
	Username   string
	UID        int64
	GivenName  string
	FamilyName string
	Email      string
	FullAdmin  bool
	Roles      []RoleAssignment
}

// NewAccessClaims builds the access-token claim set for a verified identity.
func NewAccessClaims(issuer string, id AccessIdentity, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		UID:               id.UID,
		GivenName:         id.GivenName,
		FamilyName:        id.FamilyName,
		Email:             id.Email,
		PreferredUsername: id.Username,
		FullAdmin:         id.FullAdmin,
		Roles:             id.Roles,
	}
}

// NewRefreshClaims builds the refresh-token claim set. addressHash must be
// the one-way hash of the requesting client's network address.
func NewRefreshClaims(issuer, username, addressHash string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		TokenType: TokenTypeRefresh,
		SubID:     username,
		Sec:       addressHash,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer matches the expected value.
// Empty expected means "don't care".
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures exp is present and in the future, and that the
// token is not used before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	// A token without exp never expires; we refuse those outright.
	if c.ExpiresAt == nil {
		return ErrExpired
	}
	if now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
