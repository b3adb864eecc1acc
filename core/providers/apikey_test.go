package providers_test

import (
	"context"
	"testing"

	"authbroker/core"
	"authbroker/core/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAPIKeys(t *testing.T) {
	keys, skipped := providers.ParseAPIKeys(" key1:alice , key2:bob,,bad,too:many:colons,:nouser,nokey:")

	assert.Equal(t, map[string]string{"key1": "alice", "key2": "bob"}, keys)
	assert.Equal(t, 4, skipped)
}

func TestParseAPIKeys_Empty(t *testing.T) {
	keys, skipped := providers.ParseAPIKeys("   ")

	assert.Empty(t, keys)
	assert.Equal(t, 0, skipped)
}

func TestAPIKeyProvider_Authenticate(t *testing.T) {
	provider := providers.NewAPIKeyProviderFromList("sk-test-1:alice,sk-test-2:bob")

	cred, err := provider.Authenticate(context.Background(), core.CredentialInput{Credential: "sk-test-2"})

	require.NoError(t, err)
	defer cred.Close()
	assert.Equal(t, "bob", cred.UserID)
	assert.Equal(t, core.MethodAPIKey, cred.Method)
	assert.Equal(t, "sk-test-2", cred.AccessToken.Expose())
	assert.Equal(t, core.MethodAPIKey, provider.Method())
}

func TestAPIKeyProvider_Rejects(t *testing.T) {
	provider := providers.NewAPIKeyProvider(map[string]string{"sk-test-1": "alice"})
	invalid := &core.AuthError{Kind: core.KindCustom, Code: core.CodeInvalidAPIKey}

	_, err := provider.Authenticate(context.Background(), core.CredentialInput{Credential: "sk-wrong"})
	assert.ErrorIs(t, err, invalid)

	_, err = provider.Authenticate(context.Background(), core.CredentialInput{})
	assert.ErrorIs(t, err, invalid)
	assert.ErrorIs(t, provider.ValidateCredentialFormat(""), invalid)
}
