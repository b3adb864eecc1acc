package providers

import (
	"context"
	"crypto/sha256"
	"strings"

	"authbroker/core"
	"authbroker/logging"
)

// APIKeysEnv is the environment variable holding "key:user_id" pairs.
const APIKeysEnv = "API_KEYS"

// APIKeyProvider authenticates static API keys against a mapping loaded once at
// startup. Only SHA-256 digests of the keys are retained.
type APIKeyProvider struct {
	users map[[sha256.Size]byte]string
}

// NewAPIKeyProvider builds a provider from a key -> user_id map.
func NewAPIKeyProvider(keys map[string]string) *APIKeyProvider {
	users := make(map[[sha256.Size]byte]string, len(keys))
	for key, userID := range keys {
		users[sha256.Sum256([]byte(key))] = userID
	}
	return &APIKeyProvider{users: users}
}

// NewAPIKeyProviderFromList parses a comma-separated "key:user_id" list such as
// the API_KEYS variable.
func NewAPIKeyProviderFromList(list string) *APIKeyProvider {
	keys, skipped := ParseAPIKeys(list)
	if skipped > 0 {
		logging.Warn("APIKey", "Skipped %d malformed %s entries", skipped, APIKeysEnv)
	}
	logging.Info("APIKey", "Loaded %d API keys", len(keys))
	return NewAPIKeyProvider(keys)
}

// ParseAPIKeys splits list on commas and each entry on its single colon.
// Entries without exactly one colon, or with an empty key or user id, are
// skipped and counted.
func ParseAPIKeys(list string) (keys map[string]string, skipped int) {
	keys = make(map[string]string)
	if strings.TrimSpace(list) == "" {
		return keys, 0
	}

	for _, pair := range strings.Split(list, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, ":")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			skipped++
			continue
		}
		keys[parts[0]] = parts[1]
	}
	return keys, skipped
}

func (p *APIKeyProvider) Method() core.AuthMethod {
	return core.MethodAPIKey
}

func (p *APIKeyProvider) ValidateCredentialFormat(credential string) error {
	if credential == "" {
		return core.NewCustomError(core.CodeInvalidAPIKey, "API key cannot be empty", nil)
	}
	return nil
}

// Authenticate resolves the key to its user. input.Provider is ignored; the
// key itself is returned as the credential secret.
func (p *APIKeyProvider) Authenticate(ctx context.Context, input core.CredentialInput) (*core.AuthenticatedCredential, error) {
	if err := p.ValidateCredentialFormat(input.Credential); err != nil {
		return nil, err
	}

	userID, ok := p.users[sha256.Sum256([]byte(input.Credential))]
	if !ok {
		logging.Debug("APIKey", "Rejected unknown API key")
		return nil, core.NewCustomError(core.CodeInvalidAPIKey, "invalid API key", nil)
	}

	return &core.AuthenticatedCredential{
		UserID:      userID,
		Method:      core.MethodAPIKey,
		AccessToken: core.NewSecretString(input.Credential),
	}, nil
}
