package core

import (
	"strings"
	"time"
)

// Provider represents an external OAuth issuer a user can link an account with
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderGitHub    Provider = "github"
	ProviderMicrosoft Provider = "microsoft"
	// Any other issuer name written by the linking backend is accepted as-is
)

// AuthMethod names the authentication strategy that produced a credential
type AuthMethod string

const (
	MethodSession AuthMethod = "session"
	MethodAPIKey  AuthMethod = "api_key"
	MethodJWT     AuthMethod = "jwt"
	MethodNone    AuthMethod = "none"
)

// SessionRecord identifies a short-lived authenticated session.
// Written by the identity backend at login and expired by the store TTL.
type SessionRecord struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LinkedAccountRecord is the stored association between a user and one provider.
// Token fields decode straight into Secrets and must be destroyed by the holder.
type LinkedAccountRecord struct {
	UserID         string    `json:"user_id"`
	Provider       Provider  `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"display_name"`
	AccessToken    *Secret   `json:"access_token"`
	RefreshToken   *Secret   `json:"refresh_token"`
	ExpiresAt      time.Time `json:"expires_at"`
	Scopes         []string  `json:"scopes"`
	LinkedAt       time.Time `json:"linked_at"`
}

// Destroy scrubs both token fields.
func (r *LinkedAccountRecord) Destroy() {
	if r == nil {
		return
	}
	r.AccessToken.Destroy()
	r.RefreshToken.Destroy()
}

// IsExpired reports whether the access token is expired at now, treating tokens
// within margin of expiry as already expired.
func (r *LinkedAccountRecord) IsExpired(now time.Time, margin time.Duration) bool {
	return !now.Add(margin).Before(r.ExpiresAt)
}

// AccountInfo is the non-secret part of a linked account, safe to show and log.
type AccountInfo struct {
	ProviderUserID string
	Email          string
	DisplayName    string
	Scopes         []string
	ExpiresAt      time.Time
	LinkedAt       time.Time
}

// HasScope reports whether a granted scope equals required or ends in "/"+required,
// so "userinfo.email" matches "https://www.googleapis.com/auth/userinfo.email".
func (a *AccountInfo) HasScope(required string) bool {
	if required == "" {
		return false
	}
	for _, scope := range a.Scopes {
		if scope == required || strings.HasSuffix(scope, "/"+required) {
			return true
		}
	}
	return false
}

func accountInfoFrom(r *LinkedAccountRecord) *AccountInfo {
	scopes := make([]string, len(r.Scopes))
	copy(scopes, r.Scopes)
	return &AccountInfo{
		ProviderUserID: r.ProviderUserID,
		Email:          r.Email,
		DisplayName:    r.DisplayName,
		Scopes:         scopes,
		ExpiresAt:      r.ExpiresAt,
		LinkedAt:       r.LinkedAt,
	}
}
