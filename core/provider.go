package core

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// CredentialInput is what a calling tool hands to an AuthProvider.
type CredentialInput struct {
	// Credential is the session id, API key or bearer token, depending on the provider.
	Credential string
	// Provider selects the linked account for session authentication.
	Provider Provider
	// RequiredScopes, if set, must all be granted to the linked account.
	RequiredScopes []string
}

// AuthenticatedCredential is the result of a successful Authenticate call.
// It is owned by the caller for one outbound call and must be closed afterwards.
type AuthenticatedCredential struct {
	UserID    string
	Provider  Provider
	Method    AuthMethod
	SessionID string       // set for MethodSession
	Account   *AccountInfo // set for MethodSession

	AccessToken  *Secret
	RefreshToken *Secret // may be nil
}

// Close scrubs the contained secrets. Safe to call more than once.
func (c *AuthenticatedCredential) Close() {
	if c == nil {
		return
	}
	c.AccessToken.Destroy()
	c.RefreshToken.Destroy()
}

// TokenSource hands the access token to an oauth2-aware HTTP client. The token
// string is a copy outside this credential's control and lives as long as the
// caller keeps the source.
func (c *AuthenticatedCredential) TokenSource() oauth2.TokenSource {
	token := &oauth2.Token{
		AccessToken: c.AccessToken.Expose(),
		TokenType:   "Bearer",
	}
	if c.Account != nil {
		token.Expiry = c.Account.ExpiresAt
	}
	return oauth2.StaticTokenSource(token)
}

// AuthProvider is an authentication strategy. One implementation is chosen at
// startup and shared by all tools; implementations must be safe for concurrent use.
type AuthProvider interface {
	// Authenticate resolves the input to a credential or returns an *AuthError.
	Authenticate(ctx context.Context, input CredentialInput) (*AuthenticatedCredential, error)

	// ValidateCredentialFormat rejects obviously malformed input without I/O.
	ValidateCredentialFormat(credential string) error

	Method() AuthMethod
}

// SessionResolver is implemented by providers that can resolve a session id to
// its record without touching linked accounts.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*SessionRecord, error)
}

// TokenStatus describes an account's access token relative to now.
func TokenStatus(info *AccountInfo, now time.Time) string {
	if info == nil || info.ExpiresAt.IsZero() {
		return "unknown"
	}
	if !now.Before(info.ExpiresAt) {
		return "expired"
	}
	return "valid"
}
