package jwtx

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// RS256Verifier validates tokens against the public key owned by a
// FileKeyProvider.
type RS256Verifier struct {
	keys   *FileKeyProvider
	issuer string
}

// NewVerifierRS256 creates a verifier using the provider's public key and
// the expected issuer.
func NewVerifierRS256(keys *FileKeyProvider, issuer string) *RS256Verifier {
	return &RS256Verifier{keys: keys, issuer: issuer}
}

// Verify validates the JWT string and returns its parsed Claims. All
// failures map to one of the sentinel errors above so callers can tell
// "retry login" apart from "malformed request".
func (v *RS256Verifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.keys.PublicKey()
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidClaim
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

// mapParseError folds golang-jwt's error tree into our sentinel taxonomy.
func mapParseError(err error) error {
	// A structurally valid token whose claims fail deserialization, e.g. a
	// roles claim that is not a list of {organizationalUnit, role} objects,
	// is an invalid-claims case rather than a malformed token.
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}
}
