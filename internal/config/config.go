// Package config loads the authd process configuration from a YAML file,
// the environment and an optional .env file.
package config

import (
	"errors"
	"time"

	schoolauth "github.com/vidkid7/SchoolManagementSystem-sub009"
	"github.com/vidkid7/SchoolManagementSystem-sub009/lockout"
	pginfra "github.com/vidkid7/SchoolManagementSystem-sub009/userstore/postgres"
)

type AppCfg struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type LogCfg struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type RedisCfg struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// AuthCfg carries the engine settings in env-friendly form.
type AuthCfg struct {
	AccessSecret         string         `mapstructure:"access_secret"`
	RefreshSecret        string         `mapstructure:"refresh_secret"`
	AccessTTL            time.Duration  `mapstructure:"access_ttl"`
	RefreshTTL           time.Duration  `mapstructure:"refresh_ttl"`
	RememberMeRefreshTTL time.Duration  `mapstructure:"remember_me_refresh_ttl"`
	ExtendedRefreshTTL   time.Duration  `mapstructure:"extended_refresh_ttl"`
	Issuer               string         `mapstructure:"issuer"`
	Audience             string         `mapstructure:"audience"`
	Lockout              lockout.Policy `mapstructure:"lockout"`
	ResetTokenTTL        time.Duration  `mapstructure:"reset_token_ttl"`
	AcceptBcrypt         bool           `mapstructure:"accept_bcrypt"`
	AuditBufferSize      int            `mapstructure:"audit_buffer_size"`
}

type MetricsCfg struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type SentryCfg struct {
	DSN        string  `mapstructure:"dsn"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

type Config struct {
	App     AppCfg         `mapstructure:"app"`
	Log     LogCfg         `mapstructure:"log"`
	Redis   RedisCfg       `mapstructure:"redis"`
	DB      pginfra.Config `mapstructure:"db"`
	Auth    AuthCfg        `mapstructure:"auth"`
	Metrics MetricsCfg     `mapstructure:"metrics"`
	Sentry  SentryCfg      `mapstructure:"sentry"`
}

var ErrMissingSecrets = errors.New("config: auth.access_secret and auth.refresh_secret are required")

// Engine maps the loaded settings onto schoolauth.DefaultConfig. The result
// still goes through the engine's own validation at build time.
func (c *Config) Engine() (schoolauth.Config, error) {
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		return schoolauth.Config{}, ErrMissingSecrets
	}

	out := schoolauth.DefaultConfig()
	out.JWT.AccessSecret = []byte(c.Auth.AccessSecret)
	out.JWT.RefreshSecret = []byte(c.Auth.RefreshSecret)
	out.JWT.AccessTTL = c.Auth.AccessTTL
	out.JWT.RefreshTTL = c.Auth.RefreshTTL
	out.JWT.RememberMeRefreshTTL = c.Auth.RememberMeRefreshTTL
	out.JWT.ExtendedRefreshTTL = c.Auth.ExtendedRefreshTTL
	out.JWT.Issuer = c.Auth.Issuer
	out.JWT.Audience = c.Auth.Audience

	out.Lockout = c.Auth.Lockout
	out.PasswordReset.TokenTTL = c.Auth.ResetTokenTTL
	out.Password.AcceptBcrypt = c.Auth.AcceptBcrypt
	out.Audit.BufferSize = c.Auth.AuditBufferSize
	out.Metrics.Enabled = c.Metrics.Enabled

	return out, out.Validate()
}
