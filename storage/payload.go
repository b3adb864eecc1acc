package storage

import (
	"encoding/json"
	"time"

	"authbroker/core"
)

// LinkedAccountPayload is the wire form of a linked-account record as the
// linking backend writes it. Tokens are plain strings here, so it is used only
// to seed stores in development and tests.
type LinkedAccountPayload struct {
	UserID         string        `json:"user_id"`
	Provider       core.Provider `json:"provider"`
	ProviderUserID string        `json:"provider_user_id"`
	Email          string        `json:"email"`
	DisplayName    string        `json:"display_name"`
	AccessToken    string        `json:"access_token"`
	RefreshToken   *string       `json:"refresh_token"`
	ExpiresAt      time.Time     `json:"expires_at"`
	Scopes         []string      `json:"scopes"`
	LinkedAt       time.Time     `json:"linked_at"`
}

func (p *LinkedAccountPayload) Key() string {
	return core.LinkedAccountKey(p.UserID, p.Provider)
}

func (p *LinkedAccountPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// MarshalSession encodes a session record in its wire form.
func MarshalSession(session *core.SessionRecord) ([]byte, error) {
	return json.Marshal(session)
}
