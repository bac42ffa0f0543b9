package jwtx

import (
	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// RS256Signer signs tokens with the key pair owned by a FileKeyProvider.
// It only borrows the key for each signing call and never keeps a copy, so
// a rotation performed by the provider takes effect on the next Sign.
type RS256Signer struct {
	keys *FileKeyProvider
}

// NewSignerRS256 creates an RS256 signer backed by the given provider.
func NewSignerRS256(keys *FileKeyProvider) *RS256Signer {
	return &RS256Signer{keys: keys}
}

func (s *RS256Signer) Alg() string { return jwt.SigningMethodRS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *RS256Signer) Sign(claims Claims) (string, error) {
	key, err := s.keys.PrivateKey()
	if err != nil {
		return "", err
	}
	kid, err := s.keys.KeyID()
	if err != nil {
		return "", err
	}

	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = kid
	return t.SignedString(key)
}
