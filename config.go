package schoolauth

import (
	"errors"
	"time"

	"github.com/vidkid7/SchoolManagementSystem-sub009/lockout"
	"github.com/vidkid7/SchoolManagementSystem-sub009/password"
)

// Config is the complete engine configuration. Start from DefaultConfig and
// set at least the two JWT secrets.
type Config struct {
	JWT           JWTConfig           `mapstructure:"jwt"`
	Lockout       lockout.Policy      `mapstructure:"lockout"`
	Password      PasswordConfig      `mapstructure:"password"`
	PasswordReset PasswordResetConfig `mapstructure:"password_reset"`
	Audit         AuditConfig         `mapstructure:"audit"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the token codec. Access and refresh secrets must differ.
type JWTConfig struct {
	AccessSecret  []byte `mapstructure:"access_secret"`
	RefreshSecret []byte `mapstructure:"refresh_secret"`

	AccessTTL time.Duration `mapstructure:"access_ttl"`
	// Refresh lifetimes per tier: standard, remember-me, extended.
	RefreshTTL           time.Duration `mapstructure:"refresh_ttl"`
	RememberMeRefreshTTL time.Duration `mapstructure:"remember_me_refresh_ttl"`
	ExtendedRefreshTTL   time.Duration `mapstructure:"extended_refresh_ttl"`

	Issuer   string        `mapstructure:"issuer"`
	Audience string        `mapstructure:"audience"`
	Leeway   time.Duration `mapstructure:"leeway"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig configures the default hasher built when none is injected.
type PasswordConfig struct {
	Argon2 password.Config `mapstructure:"argon2"`
	// AcceptBcrypt lets existing bcrypt hashes verify.
	AcceptBcrypt bool `mapstructure:"accept_bcrypt"`
	BcryptCost   int  `mapstructure:"bcrypt_cost"`
	// UpgradeOnLogin rewrites outdated hashes after a successful login.
	UpgradeOnLogin bool `mapstructure:"upgrade_on_login"`
}

// PasswordResetConfig configures forgot/reset password tokens.
type PasswordResetConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	TokenBytes int           `mapstructure:"token_bytes"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig configures the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	BufferSize int  `mapstructure:"buffer_size"`
	DropIfFull bool `mapstructure:"drop_if_full"`
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DefaultConfig returns production defaults without secrets.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:            15 * time.Minute,
			RefreshTTL:           7 * 24 * time.Hour,
			RememberMeRefreshTTL: 30 * 24 * time.Hour,
			ExtendedRefreshTTL:   90 * 24 * time.Hour,
			Issuer:               "school-management",
		},
		Lockout: lockout.DefaultPolicy(),
		Password: PasswordConfig{
			Argon2:         password.DefaultConfig(),
			AcceptBcrypt:   true,
			BcryptCost:     12,
			UpgradeOnLogin: true,
		},
		PasswordReset: PasswordResetConfig{
			Enabled:    true,
			TokenTTL:   time.Hour,
			TokenBytes: 32,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks cross-field consistency. Codec-level checks such as
// secret length run again when the engine is built.
func (c *Config) Validate() error {
	if len(c.JWT.AccessSecret) == 0 || len(c.JWT.RefreshSecret) == 0 {
		return errors.New("jwt access and refresh secrets are required")
	}
	if string(c.JWT.AccessSecret) == string(c.JWT.RefreshSecret) {
		return errors.New("jwt access and refresh secrets must differ")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("jwt AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL < 0 || c.JWT.RememberMeRefreshTTL < 0 || c.JWT.ExtendedRefreshTTL < 0 {
		return errors.New("jwt refresh lifetimes must not be negative")
	}
	if c.JWT.RefreshTTL > 0 && c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		return errors.New("jwt AccessTTL must be shorter than RefreshTTL")
	}
	if err := c.Lockout.Validate(); err != nil {
		return err
	}
	if c.PasswordReset.Enabled {
		if c.PasswordReset.TokenTTL <= 0 {
			return errors.New("password reset TokenTTL must be > 0")
		}
		if c.PasswordReset.TokenBytes < 16 {
			return errors.New("password reset TokenBytes must be >= 16")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit BufferSize must be > 0")
	}
	return nil
}
