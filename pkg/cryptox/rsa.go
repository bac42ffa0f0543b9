package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
)

// GenerateRSAKey generates a new RSA private key with the specified bit size
// using the provided entropy source. Pass nil to use crypto/rand.
func GenerateRSAKey(random io.Reader, bits int) (*rsa.PrivateKey, error) {
	if bits < 2048 {
		return nil, fmt.Errorf("cryptox: RSA key size must be at least 2048 bits")
	}
	if random == nil {
		random = rand.Reader
	}

	key, err := rsa.GenerateKey(random, bits)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate RSA key: %w", err)
	}
	return key, nil
}

// EncodeRSAPrivateKey serialises a private key as base64-encoded PKCS8 DER.
// This is the durable artifact format: no PEM framing, just one base64 blob.
func EncodeRSAPrivateKey(key *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(der)))
	base64.StdEncoding.Encode(out, der)
	return out, nil
}

// DecodeRSAPrivateKey parses a base64-encoded PKCS8 DER private key.
func DecodeRSAPrivateKey(encoded []byte) (*rsa.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return nil, fmt.Errorf("cryptox: invalid base64 in private key artifact: %w", err)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to parse PKCS8 key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("cryptox: artifact is not an RSA private key")
	}
	return key, nil
}

// EncodeRSAPublicKey serialises a public key as base64-encoded PKIX DER.
func EncodeRSAPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKIX key: %w", err)
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(der)))
	base64.StdEncoding.Encode(out, der)
	return out, nil
}

// DecodeRSAPublicKey parses a base64-encoded PKIX DER public key.
func DecodeRSAPublicKey(encoded []byte) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return nil, fmt.Errorf("cryptox: invalid base64 in public key artifact: %w", err)
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to parse PKIX key: %w", err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("cryptox: artifact is not an RSA public key")
	}
	return pub, nil
}
