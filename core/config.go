package core

import "errors"

var ErrMissingJWTSecret = errors.New("jwt_secret is required")

type Config struct {
	// JWT configuration
	JWTSecret            string `yaml:"jwt_secret" env:"DRINKD_JWT_SECRET"`
	SessionTokenDuration int    `yaml:"session_token_duration" env:"DRINKD_SESSION_TOKEN_DURATION"` // Session token lifetime in seconds

	// Timeout applied to each upstream provider call, in seconds
	UpstreamTimeout int `yaml:"upstream_timeout" env:"DRINKD_UPSTREAM_TIMEOUT"`
}

const (
	DefaultSessionTokenDuration = 2592000 // 30 days
	DefaultUpstreamTimeout      = 10
)

// Validate fills defaults and rejects configurations the server cannot
// safely start with. The original deployment signed tokens without an
// expiry; SessionTokenDuration closes that gap.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.SessionTokenDuration <= 0 {
		c.SessionTokenDuration = DefaultSessionTokenDuration
	}
	if c.UpstreamTimeout <= 0 {
		c.UpstreamTimeout = DefaultUpstreamTimeout
	}
	return nil
}
