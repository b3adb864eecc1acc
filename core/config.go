package core

import "time"

type Config struct {
	SessionKeyPrefix string        `yaml:"session_key_prefix"` // Store key prefix for session records, "mcp_session:" when empty
	DefaultProvider  Provider      `yaml:"default_provider"`   // Used when a session request names no provider
	ExpiryMargin     time.Duration `yaml:"expiry_margin"`      // Access tokens expiring within this margin count as expired
	LookupTimeout    time.Duration `yaml:"lookup_timeout"`     // Per store read; zero leaves the caller's deadline in charge

	TokenEncryptionKey string `yaml:"token_encryption_key"` // Optional 32-byte AES-256 key for encrypted token fields
}

func (c *Config) defaultProvider() Provider {
	if c == nil || c.DefaultProvider == "" {
		return ProviderGoogle
	}
	return c.DefaultProvider
}
