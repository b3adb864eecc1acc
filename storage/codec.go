package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"authbroker/core"
)

const (
	opGetSession       = "get_session"
	opGetLinkedAccount = "get_linked_account"
)

// sessionPayload is the session wire form. Timestamps are kept raw because the
// issuing backend's layout is not fixed; store TTL is the authoritative expiry.
type sessionPayload struct {
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id"`
	CreatedAt json.RawMessage `json:"created_at"`
	ExpiresAt json.RawMessage `json:"expires_at"`
}

// decodeSession parses a session payload and checks it belongs to sessionID.
// Unreadable timestamps are left zero, which disables the checks that use them.
func decodeSession(key, sessionID string, raw []byte) (*core.SessionRecord, error) {
	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, core.Corrupt(opGetSession, key, err)
	}

	session := &core.SessionRecord{
		SessionID: payload.SessionID,
		UserID:    payload.UserID,
		CreatedAt: parseTimestamp(payload.CreatedAt),
		ExpiresAt: parseTimestamp(payload.ExpiresAt),
	}

	switch {
	case session.SessionID != "" && session.SessionID != sessionID:
		return nil, core.Corrupt(opGetSession, key, fmt.Errorf("session_id %q does not match key", session.SessionID))
	case session.UserID == "":
		return nil, core.Corrupt(opGetSession, key, errors.New("missing user_id"))
	case !session.CreatedAt.IsZero() && !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(session.CreatedAt):
		return nil, core.Corrupt(opGetSession, key, errors.New("expires_at is not after created_at"))
	}

	session.SessionID = sessionID
	return session, nil
}

// Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp reads an RFC 3339 or zone-less ISO 8601 string, or Unix
// seconds as a number or numeric string. Anything else yields the zero time.
func parseTimestamp(raw json.RawMessage) time.Time {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var seconds json.Number
		if err := json.Unmarshal(raw, &seconds); err != nil {
			return time.Time{}
		}
		text = seconds.String()
	}
	text = strings.TrimSpace(text)

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t
		}
	}
	if seconds, err := strconv.ParseFloat(text, 64); err == nil && seconds > 0 {
		whole := int64(seconds)
		return time.Unix(whole, int64((seconds-float64(whole))*1e9)).UTC()
	}
	return time.Time{}
}

// decodeLinkedAccount parses a linked-account payload into a record whose token
// fields are Secrets, then scrubs raw. On error every decoded secret is destroyed.
func decodeLinkedAccount(key, userID string, provider core.Provider, raw []byte) (*core.LinkedAccountRecord, error) {
	defer clear(raw)

	var account core.LinkedAccountRecord
	if err := json.Unmarshal(raw, &account); err != nil {
		account.Destroy()
		return nil, core.Corrupt(opGetLinkedAccount, key, err)
	}

	var problem error
	switch {
	case account.UserID != userID:
		problem = fmt.Errorf("user_id %q does not match key", account.UserID)
	case account.Provider != provider:
		problem = fmt.Errorf("provider %q does not match key", account.Provider)
	case account.ExpiresAt.IsZero():
		problem = errors.New("missing expires_at")
	}
	if problem != nil {
		account.Destroy()
		return nil, core.Corrupt(opGetLinkedAccount, key, problem)
	}

	return &account, nil
}
