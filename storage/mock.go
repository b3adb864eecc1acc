package storage

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"
	"sync"
	"time"

	"authbroker/core"
)

// MockEncryptionKey is the AES-256 key the encrypted fixtures are sealed with.
const MockEncryptionKey = "12345678901234567890123456789012"

func testEncrypt(plaintext string) string {
	block, _ := aes.NewCipher([]byte(MockEncryptionKey))
	gcm, _ := cipher.NewGCM(block)
	nonce := make([]byte, gcm.NonceSize())
	io.ReadFull(rand.Reader, nonce)
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext)
}

func strPtr(s string) *string {
	return &s
}

// FixtureNow is the reference instant the fixtures are laid out around.
var FixtureNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const (
	// Session1 belongs to User1, who has a valid Google account linked.
	Session1 = "550e8400-e29b-41d4-a716-446655440000"
	// Session2 belongs to User2, whose GitHub token has expired and whose
	// Google record is corrupt.
	Session2 = "6fa459ea-ee8a-4ca4-894e-db77e160355e"
	// Session3 belongs to User3, whose Google tokens are encrypted at rest.
	Session3 = "3d1f2a9c-7b4e-4c8d-9a6f-0e1b2c3d4e5f"
	// SessionStale is still in the store but past its expires_at.
	SessionStale = "9b2f6c1e-3d4a-4f5b-8c6d-7e8f9a0b1c2d"

	User1 = "user123"
	User2 = "user456"
	User3 = "user789"

	User1AccessToken  = "ya29.mock-access-token-1"
	User1RefreshToken = "1//mock-refresh-token-1"
	User2AccessToken  = "gho_mock-expired-token"
	User3AccessToken  = "ya29.mock-access-token-3"
	User3RefreshToken = "1//mock-refresh-token-3"
)

var (
	SessionRecord1 = &core.SessionRecord{
		SessionID: Session1,
		UserID:    User1,
		CreatedAt: FixtureNow.Add(-time.Minute),
		ExpiresAt: FixtureNow.Add(5 * time.Minute),
	}

	SessionRecord2 = &core.SessionRecord{
		SessionID: Session2,
		UserID:    User2,
		CreatedAt: FixtureNow.Add(-time.Minute),
		ExpiresAt: FixtureNow.Add(5 * time.Minute),
	}

	SessionRecord3 = &core.SessionRecord{
		SessionID: Session3,
		UserID:    User3,
		CreatedAt: FixtureNow.Add(-time.Minute),
		ExpiresAt: FixtureNow.Add(5 * time.Minute),
	}

	SessionRecordStale = &core.SessionRecord{
		SessionID: SessionStale,
		UserID:    User1,
		CreatedAt: FixtureNow.Add(-10 * time.Minute),
		ExpiresAt: FixtureNow.Add(-5 * time.Minute),
	}

	Account1Google = &LinkedAccountPayload{
		UserID:         User1,
		Provider:       core.ProviderGoogle,
		ProviderUserID: "google-uid-123",
		Email:          "user123@example.com",
		DisplayName:    "Test User",
		AccessToken:    User1AccessToken,
		RefreshToken:   strPtr(User1RefreshToken),
		ExpiresAt:      FixtureNow.Add(time.Hour),
		Scopes:         []string{"openid", "https://www.googleapis.com/auth/userinfo.email"},
		LinkedAt:       FixtureNow.Add(-24 * time.Hour),
	}

	Account2GitHub = &LinkedAccountPayload{
		UserID:         User2,
		Provider:       core.ProviderGitHub,
		ProviderUserID: "github-uid-456",
		Email:          "user456@example.com",
		DisplayName:    "Expired User",
		AccessToken:    User2AccessToken,
		ExpiresAt:      FixtureNow.Add(-time.Minute),
		Scopes:         []string{"repo", "read:user"},
		LinkedAt:       FixtureNow.Add(-48 * time.Hour),
	}

	Account3Google = &LinkedAccountPayload{
		UserID:         User3,
		Provider:       core.ProviderGoogle,
		ProviderUserID: "google-uid-789",
		Email:          "user789@example.com",
		DisplayName:    "Encrypted User",
		AccessToken:    testEncrypt(User3AccessToken),
		RefreshToken:   strPtr(testEncrypt(User3RefreshToken)),
		ExpiresAt:      FixtureNow.Add(time.Hour),
		Scopes:         []string{"openid", "email"},
		LinkedAt:       FixtureNow.Add(-24 * time.Hour),
	}
)

type mockEntry struct {
	value     []byte
	expiresAt time.Time
}

// MockStore is an in-memory CredentialStore holding records in their encoded
// form, so every read decodes a fresh copy the way a real store does.
type MockStore struct {
	mu            sync.Mutex
	entries       map[string]mockEntry
	sessionPrefix string
	now           func() time.Time

	// Err, when set, fails every read and ping as StoreUnavailable.
	Err error

	SessionReads       int
	LinkedAccountReads int

	// RecordKeys makes every read append its key to ReadKeys.
	RecordKeys bool
	ReadKeys   []string
}

// NewMockStore returns an empty store. now drives entry expiry; nil means no expiry.
func NewMockStore(now func() time.Time) *MockStore {
	return &MockStore{
		entries: make(map[string]mockEntry),
		now:     now,
	}
}

// NewMockStoreWithFixtures returns a store seeded with every fixture above.
func NewMockStoreWithFixtures(now func() time.Time) *MockStore {
	m := NewMockStore(now)
	for _, session := range []*core.SessionRecord{SessionRecord1, SessionRecord2, SessionRecord3, SessionRecordStale} {
		raw, _ := MarshalSession(session)
		// Stale session stays readable so expires_at is checked by the reader.
		m.Put(core.SessionKey("", session.SessionID), raw, time.Time{})
	}
	for _, account := range []*LinkedAccountPayload{Account1Google, Account2GitHub, Account3Google} {
		raw, _ := account.Marshal()
		m.Put(account.Key(), raw, time.Time{})
	}
	m.Put(core.LinkedAccountKey(User2, core.ProviderGoogle), []byte(`{"user_id": "user456", "access_token": `), time.Time{})
	return m
}

// Put stores a copy of value under key. A zero expiresAt never expires.
func (m *MockStore) Put(key string, value []byte, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = mockEntry{
		value:     append([]byte(nil), value...),
		expiresAt: expiresAt,
	}
}

func (m *MockStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *MockStore) GetSession(ctx context.Context, sessionID string) (*core.SessionRecord, error) {
	key := core.SessionKey(m.sessionPrefix, sessionID)
	raw, err := m.get(ctx, opGetSession, key, &m.SessionReads)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeSession(key, sessionID, raw)
}

func (m *MockStore) GetLinkedAccount(ctx context.Context, userID string, provider core.Provider) (*core.LinkedAccountRecord, error) {
	key := core.LinkedAccountKey(userID, provider)
	raw, err := m.get(ctx, opGetLinkedAccount, key, &m.LinkedAccountReads)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeLinkedAccount(key, userID, provider, raw)
}

func (m *MockStore) get(ctx context.Context, op, key string, counter *int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	*counter++
	if m.RecordKeys {
		m.ReadKeys = append(m.ReadKeys, key)
	}

	if err := ctx.Err(); err != nil {
		return nil, core.Unavailable(op, key, err)
	}
	if m.Err != nil {
		return nil, core.Unavailable(op, key, m.Err)
	}

	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && m.now != nil && !m.now().Before(entry.expiresAt) {
		return nil, nil
	}
	return append([]byte(nil), entry.value...), nil
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return core.Unavailable("ping", "", m.Err)
	}
	return nil
}

func (m *MockStore) Close() error {
	return nil
}

// Reads returns the total number of reads served.
func (m *MockStore) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SessionReads + m.LinkedAccountReads
}
