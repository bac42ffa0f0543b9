package jwtx

import (
	"crypto/rsa"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/taskgrove/taskadmin/pkg/cryptox"
)

const (
	// DefaultKeyMaxAge is how old the private-key artifact may be before
	// the next load regenerates the pair.
	DefaultKeyMaxAge = 30 * 24 * time.Hour

	// DefaultRSABits is the modulus size for generated keys.
	DefaultRSABits = 4096

	// FallbackKeyID is published when the private-key artifact cannot be
	// stat'ed for its modification time.
	FallbackKeyID = "taskadmin-key"

	privateKeyFile = "private.key"
	publicKeyFile  = "public.key"
)

// FileKeyProviderOptions configures a FileKeyProvider.
type FileKeyProviderOptions struct {
	// Dir is the directory holding the two base64-encoded key artifacts.
	Dir string

	// Bits is the RSA modulus size for generated keys. Defaults to 4096.
	Bits int

	// MaxAge is the staleness threshold for the private-key artifact.
	// Defaults to 30 days.
	MaxAge time.Duration

	// Rand is the entropy source for key generation. Defaults to
	// crypto/rand; tests may inject a deterministic reader.
	Rand io.Reader
}

// FileKeyProvider owns the asymmetric signing key pair. The pair lives in
// two base64-encoded DER artifacts on disk (PKCS8 private, PKIX public) and
// is lazily materialized on first use: missing or stale artifacts trigger
// generation of a fresh pair which overwrites both files. The key id is
// derived from the private artifact's modification time, so rotation is
// observable to relying parties through the published key set.
//
// All accessors are safe for concurrent use; the first caller performs the
// (possibly multi-second) load or generation while the rest wait.
type FileKeyProvider struct {
	dir    string
	bits   int
	maxAge time.Duration
	random io.Reader

	mu     sync.Mutex
	loaded bool
	key    *rsa.PrivateKey
	kid    string
}

// NewFileKeyProvider returns an unloaded provider. No I/O happens until the
// first key access or an explicit Load.
func NewFileKeyProvider(opts FileKeyProviderOptions) *FileKeyProvider {
	bits := opts.Bits
	if bits == 0 {
		bits = DefaultRSABits
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultKeyMaxAge
	}
	return &FileKeyProvider{
		dir:    opts.Dir,
		bits:   bits,
		maxAge: maxAge,
		random: opts.Rand,
	}
}

// PrivateKey returns the signing key, loading or generating the pair first
// if needed. Errors are foundational: a caller that cannot obtain key
// material must not serve auth traffic.
func (p *FileKeyProvider) PrivateKey() (*rsa.PrivateKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureLocked(); err != nil {
		return nil, err
	}
	return p.key, nil
}

// PublicKey returns the verification key, loading the pair first if needed.
func (p *FileKeyProvider) PublicKey() (*rsa.PublicKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureLocked(); err != nil {
		return nil, err
	}
	return &p.key.PublicKey, nil
}

// KeyID returns the rotation-aware key identifier: the private artifact's
// last-modified time in milliseconds since epoch, or FallbackKeyID when the
// artifact cannot be stat'ed.
func (p *FileKeyProvider) KeyID() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureLocked(); err != nil {
		return "", err
	}
	return p.kid, nil
}

// Load runs the load-or-generate algorithm unconditionally, replacing any
// in-memory key material. Accessors call this lazily on first use; callers
// may invoke it directly to pick up an out-of-band rotation.
func (p *FileKeyProvider) Load() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadLocked()
}

func (p *FileKeyProvider) ensureLocked() error {
	if p.loaded {
		return nil
	}
	return p.loadLocked()
}

func (p *FileKeyProvider) loadLocked() error {
	privPath := filepath.Join(p.dir, privateKeyFile)
	pubPath := filepath.Join(p.dir, publicKeyFile)

	privInfo, privErr := os.Stat(privPath)
	_, pubErr := os.Stat(pubPath)

	switch {
	case os.IsNotExist(privErr) || os.IsNotExist(pubErr):
		// Either artifact missing: start over with a fresh pair.
		if err := p.generateLocked(privPath, pubPath); err != nil {
			return err
		}
	case privErr != nil:
		return fmt.Errorf("jwtx: stat private key artifact: %w", privErr)
	case pubErr != nil:
		return fmt.Errorf("jwtx: stat public key artifact: %w", pubErr)
	case time.Since(privInfo.ModTime()) > p.maxAge:
		// Stale pair: regenerate, never mutate in place.
		if err := p.generateLocked(privPath, pubPath); err != nil {
			return err
		}
	default:
		if err := p.decodeLocked(privPath); err != nil {
			return err
		}
	}

	p.kid = keyIDFor(privPath)
	p.loaded = true
	return nil
}

func (p *FileKeyProvider) generateLocked(privPath, pubPath string) error {
	key, err := cryptox.GenerateRSAKey(p.random, p.bits)
	if err != nil {
		return fmt.Errorf("jwtx: generate signing key: %w", err)
	}

	privEncoded, err := cryptox.EncodeRSAPrivateKey(key)
	if err != nil {
		return err
	}
	pubEncoded, err := cryptox.EncodeRSAPublicKey(&key.PublicKey)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(p.dir, 0750); err != nil {
		return fmt.Errorf("jwtx: create key directory: %w", err)
	}
	if err := os.WriteFile(privPath, privEncoded, 0600); err != nil {
		return fmt.Errorf("jwtx: write private key artifact: %w", err)
	}
	if err := os.WriteFile(pubPath, pubEncoded, 0644); err != nil { // #nosec G306 - public key is public
		return fmt.Errorf("jwtx: write public key artifact: %w", err)
	}

	p.key = key
	return nil
}

func (p *FileKeyProvider) decodeLocked(privPath string) error {
	encoded, err := os.ReadFile(privPath)
	if err != nil {
		return fmt.Errorf("jwtx: read private key artifact: %w", err)
	}
	key, err := cryptox.DecodeRSAPrivateKey(encoded)
	if err != nil {
		return err
	}
	p.key = key
	return nil
}

// keyIDFor derives the key id from the artifact's mtime. The timestamp is
// load-bearing: deployments must preserve mtimes across backup/restore or
// key-id stability breaks.
func keyIDFor(privPath string) string {
	info, err := os.Stat(privPath)
	if err != nil {
		return FallbackKeyID
	}
	return strconv.FormatInt(info.ModTime().UnixMilli(), 10)
}
