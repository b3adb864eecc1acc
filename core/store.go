package core

import (
	"context"
	"fmt"
)

// Key prefixes shared with the session-issuing backend.
const (
	DefaultSessionKeyPrefix = "mcp_session:"
	LinkedAccountKeyPrefix  = "linked_account:"
)

// CredentialStore is read access to the session and linked-account records.
// Implementations must be safe for concurrent use and honour ctx cancellation
// and deadlines on every call.
type CredentialStore interface {
	// GetSession returns (nil, nil) when no session exists for sessionID,
	// including when it has expired out of the store.
	GetSession(ctx context.Context, sessionID string) (*SessionRecord, error)

	// GetLinkedAccount returns (nil, nil) when the user has no account linked
	// for provider. The caller owns the returned record's secrets.
	GetLinkedAccount(ctx context.Context, userID string, provider Provider) (*LinkedAccountRecord, error)

	Ping(ctx context.Context) error

	Close() error
}

// SessionKey builds the store key for a session id.
func SessionKey(prefix, sessionID string) string {
	if prefix == "" {
		prefix = DefaultSessionKeyPrefix
	}
	return prefix + sessionID
}

// LinkedAccountKey builds the store key for a (user, provider) pair.
func LinkedAccountKey(userID string, provider Provider) string {
	return LinkedAccountKeyPrefix + userID + ":" + string(provider)
}

// StoreError is returned by CredentialStore implementations. It matches
// ErrStoreUnavailable or ErrCorruptRecord under errors.Is depending on Kind.
type StoreError struct {
	Kind ErrorKind
	Op   string
	Key  string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %s: %v", e.Op, e.Key, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind && t.Code == ""
}

// Unavailable wraps a connectivity, timeout or cancellation failure.
func Unavailable(op, key string, err error) error {
	return &StoreError{Kind: KindStoreUnavailable, Op: op, Key: key, Err: err}
}

// Corrupt wraps a payload that could not be decoded or is inconsistent.
func Corrupt(op, key string, err error) error {
	return &StoreError{Kind: KindCorruptRecord, Op: op, Key: key, Err: err}
}
