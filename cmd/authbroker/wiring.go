package main

import (
	"context"
	"fmt"

	"authbroker/core"
	"authbroker/core/providers"
	"authbroker/logging"
	"authbroker/storage"

	"github.com/jonboulle/clockwork"
)

func initStore(ctx context.Context, config *AppConfig) (core.CredentialStore, error) {
	prefix := config.Auth.SessionKeyPrefix

	switch config.Store.Type {
	case StoreRedis:
		store, err := storage.NewRedisStore(ctx, config.Store.URL, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logging.Info("Main", "Using Redis credential store")
		return store, nil

	case StoreValkey:
		store, err := storage.NewValkeyStore(ctx, config.Store.URL, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to valkey: %w", err)
		}
		logging.Info("Main", "Using Valkey credential store")
		return store, nil

	case StoreSQLite:
		store, err := storage.NewSQLiteStore(config.Store.SQLitePath, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		logging.Info("Main", "Using SQLite credential store: %s", config.Store.SQLitePath)
		return store, nil

	case StoreMock:
		logging.Info("Main", "Using mock credential store (in-memory fixtures)")
		return storage.NewMockStoreWithFixtures(nil), nil

	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Store.Type)
	}
}

// initProvider selects the AuthProvider for config.Auth.Method. store is only
// used by the session method and may be nil otherwise.
func initProvider(config *AppConfig, store core.CredentialStore, metrics *core.Metrics, clock clockwork.Clock) (core.AuthProvider, error) {
	switch core.AuthMethod(config.Auth.Method) {
	case core.MethodSession:
		opts := []core.BrokerOption{core.WithClock(clock), core.WithMetrics(metrics)}
		if config.Auth.TokenEncryptionKey != "" {
			cipher, err := core.NewTokenCipher(config.Auth.TokenEncryptionKey)
			if err != nil {
				return nil, err
			}
			opts = append(opts, core.WithTokenCipher(cipher))
		}
		broker := core.NewBroker(store, &config.Auth.Config, opts...)
		return broker, nil

	case core.MethodAPIKey:
		return providers.NewAPIKeyProviderFromList(config.Auth.APIKeys), nil

	case core.MethodJWT:
		provider, err := providers.NewJWTProvider(&config.Auth.JWT, clock)
		if err != nil {
			return nil, err
		}
		return provider, nil

	case core.MethodNone:
		logging.Warn("Main", "Authentication is disabled; every tool call will be rejected")
		return providers.NewNoOpProvider(), nil

	default:
		return nil, fmt.Errorf("unknown auth method: %s", config.Auth.Method)
	}
}
