package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"authbroker/core"
	"authbroker/core/providers"
	"authbroker/logging"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "config.yaml"
	defaultStoreURL   = "redis://localhost:6379/0"
	defaultHTTPAddr   = ":8080"

	TransportStdio = "stdio"
	TransportHTTP  = "http"

	StoreRedis  = "redis"
	StoreValkey = "valkey"
	StoreSQLite = "sqlite"
	StoreMock   = "mock"
)

type AppConfig struct {
	Auth      AuthConfig  `yaml:"auth"`
	Store     StoreConfig `yaml:"store"`
	Transport string      `yaml:"transport"`
	HTTPAddr  string      `yaml:"http_addr"`
	Log       LogConfig   `yaml:"log"`
}

type AuthConfig struct {
	Method      string `yaml:"method"`
	core.Config `yaml:",inline"`

	JWT     providers.JWTConfig `yaml:"jwt"`
	APIKeys string              `yaml:"api_keys"`
}

type StoreConfig struct {
	Type       string `yaml:"type"`
	URL        string `yaml:"url"`
	SQLitePath string `yaml:"sqlite_path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Auth: AuthConfig{
			Method: string(core.MethodSession),
			Config: core.Config{
				SessionKeyPrefix: core.DefaultSessionKeyPrefix,
				DefaultProvider:  core.ProviderGoogle,
				LookupTimeout:    2 * time.Second,
			},
		},
		Store: StoreConfig{
			Type: StoreRedis,
			URL:  defaultStoreURL,
		},
		Transport: TransportStdio,
		HTTPAddr:  defaultHTTPAddr,
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
	}
}

// loadConfig reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func loadConfig(path string) (*AppConfig, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *AppConfig) applyEnv() {
	setFromEnv(&c.Store.URL, "AUTHBROKER_STORE_URL")
	setFromEnv(&c.Store.Type, "AUTHBROKER_STORE_TYPE")
	setFromEnv(&c.Auth.Method, "AUTHBROKER_AUTH_METHOD")
	setFromEnv(&c.Log.Level, "AUTHBROKER_LOG_LEVEL")
	setFromEnv(&c.Log.Format, "AUTHBROKER_LOG_FORMAT")
	setFromEnv(&c.Transport, "AUTHBROKER_TRANSPORT")
	setFromEnv(&c.HTTPAddr, "AUTHBROKER_HTTP_ADDR")
	setFromEnv(&c.Auth.JWT.Secret, "AUTHBROKER_JWT_SECRET")
	setFromEnv(&c.Auth.TokenEncryptionKey, "AUTHBROKER_TOKEN_ENCRYPTION_KEY")
	setFromEnv(&c.Auth.APIKeys, providers.APIKeysEnv)
}

// Validate rejects configurations the server cannot start with.
func (c *AppConfig) Validate() error {
	var errs []error

	switch core.AuthMethod(c.Auth.Method) {
	case core.MethodSession, core.MethodNone:
	case core.MethodAPIKey:
		if strings.TrimSpace(c.Auth.APIKeys) == "" {
			errs = append(errs, fmt.Errorf("auth method %s requires %s", core.MethodAPIKey, providers.APIKeysEnv))
		}
	case core.MethodJWT:
		if c.Auth.JWT.Secret == "" {
			errs = append(errs, fmt.Errorf("auth method %s requires auth.jwt.secret", core.MethodJWT))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown auth method %q", c.Auth.Method))
	}

	if c.Auth.ExpiryMargin < 0 {
		errs = append(errs, errors.New("auth.expiry_margin must not be negative"))
	}
	if c.Auth.LookupTimeout < 0 {
		errs = append(errs, errors.New("auth.lookup_timeout must not be negative"))
	}
	if key := c.Auth.TokenEncryptionKey; key != "" && len(key) != 32 {
		errs = append(errs, core.ErrInvalidEncryptionKey)
	}

	if c.usesStore() {
		switch c.Store.Type {
		case StoreRedis, StoreValkey:
			if c.Store.URL == "" {
				errs = append(errs, fmt.Errorf("store type %s requires store.url", c.Store.Type))
			}
		case StoreSQLite:
			if c.Store.SQLitePath == "" {
				errs = append(errs, errors.New("store type sqlite requires store.sqlite_path"))
			}
		case StoreMock:
		default:
			errs = append(errs, fmt.Errorf("unsupported store type %q (supported: redis, valkey, sqlite, mock)", c.Store.Type))
		}
	}

	switch c.Transport {
	case TransportStdio:
	case TransportHTTP:
		if c.HTTPAddr == "" {
			errs = append(errs, errors.New("transport http requires http_addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q (supported: stdio, http)", c.Transport))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if f := logging.Format(c.Log.Format); f != logging.FormatText && f != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func (c *AppConfig) usesStore() bool {
	return core.AuthMethod(c.Auth.Method) == core.MethodSession
}

func setFromEnv(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
