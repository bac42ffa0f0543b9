package app

import (
	"fmt"
	"log/slog"

	"github.com/taskgrove/taskadmin/pkg/jwtx"
)

// initAuthKeys constructs the signing key provider and warms it so a broken
// key directory fails the process at startup instead of on the first login.
func initAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.FileKeyProvider, error) {
	provider := jwtx.NewFileKeyProvider(jwtx.FileKeyProviderOptions{
		Dir:    cfg.KeyDir,
		Bits:   cfg.RSABits,
		MaxAge: cfg.KeyMaxAge,
	})

	if err := provider.Load(); err != nil {
		return nil, fmt.Errorf("load signing keys: %w", err)
	}

	kid, err := provider.KeyID()
	if err != nil {
		return nil, err
	}
	logger.Info("signing keys ready", "kid", kid, "dir", cfg.KeyDir)

	return provider, nil
}
