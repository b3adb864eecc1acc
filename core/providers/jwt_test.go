package providers_test

import (
	"context"
	"testing"
	"time"

	"authbroker/core"
	"authbroker/core/providers"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWTConfig = &providers.JWTConfig{
	Secret:   "test-secret-key-for-testing-purposes-only",
	Issuer:   "identity-backend",
	Audience: "authbroker",
}

var issuedAt = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func setupJWTProvider(t *testing.T) (*providers.JWTProvider, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(issuedAt.Add(time.Minute))
	provider, err := providers.NewJWTProvider(testJWTConfig, clock)
	require.NoError(t, err)
	return provider, clock
}

func TestNewJWTProvider_RequiresSecret(t *testing.T) {
	_, err := providers.NewJWTProvider(&providers.JWTConfig{}, nil)
	assert.ErrorIs(t, err, providers.ErrJWTSecretRequired)

	_, err = providers.NewJWTProvider(nil, nil)
	assert.ErrorIs(t, err, providers.ErrJWTSecretRequired)
}

func TestJWTProvider_Authenticate(t *testing.T) {
	provider, _ := setupJWTProvider(t)
	token, err := providers.SignToken(testJWTConfig, "user123", core.ProviderGitHub, issuedAt, 15*time.Minute)
	require.NoError(t, err)

	cred, err := provider.Authenticate(context.Background(), core.CredentialInput{Credential: token})

	require.NoError(t, err)
	defer cred.Close()
	assert.Equal(t, "user123", cred.UserID)
	assert.Equal(t, core.ProviderGitHub, cred.Provider)
	assert.Equal(t, core.MethodJWT, cred.Method)
	assert.Equal(t, token, cred.AccessToken.Expose())
}

func TestJWTProvider_InputProviderWins(t *testing.T) {
	provider, _ := setupJWTProvider(t)
	token, err := providers.SignToken(testJWTConfig, "user123", core.ProviderGitHub, issuedAt, 15*time.Minute)
	require.NoError(t, err)

	cred, err := provider.Authenticate(context.Background(), core.CredentialInput{Credential: token, Provider: core.ProviderGoogle})

	require.NoError(t, err)
	assert.Equal(t, core.ProviderGoogle, cred.Provider)
}

func TestJWTProvider_Expired(t *testing.T) {
	provider, clock := setupJWTProvider(t)
	token, err := providers.SignToken(testJWTConfig, "user123", "", issuedAt, 15*time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Hour)

	_, err = provider.Authenticate(context.Background(), core.CredentialInput{Credential: token})
	assert.ErrorIs(t, err, &core.AuthError{Kind: core.KindCustom, Code: core.CodeInvalidToken})
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTProvider_Rejects(t *testing.T) {
	provider, _ := setupJWTProvider(t)
	invalid := &core.AuthError{Kind: core.KindCustom, Code: core.CodeInvalidToken}

	wrongSecret, err := providers.SignToken(&providers.JWTConfig{Secret: "other", Issuer: "identity-backend", Audience: "authbroker"}, "user123", "", issuedAt, time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := providers.SignToken(&providers.JWTConfig{Secret: testJWTConfig.Secret, Issuer: "elsewhere", Audience: "authbroker"}, "user123", "", issuedAt, time.Hour)
	require.NoError(t, err)
	noSubject, err := providers.SignToken(testJWTConfig, "", "", issuedAt, time.Hour)
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user123"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"wrong secret": wrongSecret,
		"wrong issuer": wrongIssuer,
		"no subject":   noSubject,
		"alg none":     noneAlg,
	} {
		t.Run(name, func(t *testing.T) {
			cred, err := provider.Authenticate(context.Background(), core.CredentialInput{Credential: token})

			assert.Nil(t, cred)
			assert.ErrorIs(t, err, invalid)
		})
	}
}
