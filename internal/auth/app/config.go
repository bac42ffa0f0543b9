package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries everything the process needs, populated from the
// environment.
type Config struct {
	Issuer string `env:"AUTH_ISSUER" envDefault:"taskadmin"`

	// Key material
	KeyDir    string        `env:"AUTH_KEY_DIR" envDefault:"keys"`
	RSABits   int           `env:"AUTH_RSA_BITS" envDefault:"4096"`
	KeyMaxAge time.Duration `env:"AUTH_KEY_MAX_AGE" envDefault:"720h"`

	// Token lifetimes
	AccessTTL  time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"168h"`

	// Brute-force throttling
	AccountFailureThreshold int           `env:"AUTH_ACCOUNT_FAILURE_THRESHOLD" envDefault:"5"`
	AddressFailureThreshold int           `env:"AUTH_ADDRESS_FAILURE_THRESHOLD" envDefault:"10"`
	LockoutDuration         time.Duration `env:"AUTH_LOCKOUT_DURATION" envDefault:"30m"`
	AddressFailureWindow    time.Duration `env:"AUTH_ADDRESS_FAILURE_WINDOW" envDefault:"4h"`

	// Storage
	DatabaseFile string `env:"AUTH_DATABASE_FILE" envDefault:"taskadmin.db"`
	PepperFile   string `env:"AUTH_PEPPER_FILE" envDefault:"pepper"`

	// Initial admin account, created on first start when both are set
	BootstrapAdminUsername string `env:"AUTH_BOOTSTRAP_ADMIN_USERNAME"`
	BootstrapAdminPassword string `env:"AUTH_BOOTSTRAP_ADMIN_PASSWORD"`
	BootstrapAdminEmail    string `env:"AUTH_BOOTSTRAP_ADMIN_EMAIL"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("app: parse environment: %w", err)
	}
	return cfg, nil
}
