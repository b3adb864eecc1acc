package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authbroker/logging"

	"github.com/jonboulle/clockwork"
)

const logSubsystem = "Broker"

// Broker is the session-to-credential AuthProvider. It validates a session id,
// resolves the session and then the user's linked account for the requested
// provider, checks the access token expiry and hands the tokens to the caller.
//
// A Broker holds no per-call state; the store is the only shared dependency.
type Broker struct {
	store   CredentialStore
	config  *Config
	clock   clockwork.Clock
	cipher  *TokenCipher
	metrics *Metrics
}

type BrokerOption func(*Broker)

// WithClock replaces the wall clock, for tests.
func WithClock(clock clockwork.Clock) BrokerOption {
	return func(b *Broker) { b.clock = clock }
}

// WithMetrics records outcomes and store latency.
func WithMetrics(m *Metrics) BrokerOption {
	return func(b *Broker) { b.metrics = m }
}

// WithTokenCipher decrypts token fields stored encrypted at rest.
func WithTokenCipher(c *TokenCipher) BrokerOption {
	return func(b *Broker) { b.cipher = c }
}

func NewBroker(store CredentialStore, config *Config, opts ...BrokerOption) *Broker {
	if config == nil {
		config = &Config{}
	}
	b := &Broker{
		store:  store,
		config: config,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Broker) Method() AuthMethod {
	return MethodSession
}

func (b *Broker) ValidateCredentialFormat(credential string) error {
	if err := ValidateSessionFormat(credential); err != nil {
		return newAuthError(KindInvalidSessionFormat, "", err)
	}
	return nil
}

// Authenticate runs validate, resolve session, resolve linked account, check
// expiry and emit, in that order, stopping at the first failure.
func (b *Broker) Authenticate(ctx context.Context, input CredentialInput) (*AuthenticatedCredential, error) {
	cred, err := b.authenticate(ctx, input)
	b.metrics.ObserveAuthentication(MethodSession, err)
	return cred, err
}

func (b *Broker) authenticate(ctx context.Context, input CredentialInput) (*AuthenticatedCredential, error) {
	provider := input.Provider
	if provider == "" {
		provider = b.config.defaultProvider()
	}

	// 1. Validate
	if err := b.ValidateCredentialFormat(input.Credential); err != nil {
		logging.Debug(logSubsystem, "Rejected malformed session id")
		return nil, err
	}
	sessionID := input.Credential

	// 2. Resolve session
	session, err := b.resolveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// 3. Resolve linked account
	account, err := b.resolveLinkedAccount(ctx, session.UserID, provider)
	if err != nil {
		return nil, err
	}

	// 4. Check expiry
	if account.IsExpired(b.clock.Now(), b.config.ExpiryMargin) {
		account.Destroy()
		logging.Info(logSubsystem, "Access token expired for user=%s provider=%s", session.UserID, provider)
		return nil, newAuthError(KindTokenExpired,
			fmt.Sprintf("access token for user %s provider %s expired at %s", session.UserID, provider, account.ExpiresAt.UTC().Format(time.RFC3339)), nil)
	}

	info := accountInfoFrom(account)
	for _, scope := range input.RequiredScopes {
		if !info.HasScope(scope) {
			account.Destroy()
			logging.Info(logSubsystem, "Missing scope %q for user=%s provider=%s", scope, session.UserID, provider)
			return nil, NewCustomError(CodeInsufficientScope, fmt.Sprintf("scope %q not granted", scope), nil)
		}
	}

	// 5. Emit
	access, refresh, err := b.unsealTokens(account)
	if err != nil {
		b.metrics.observeCorrupt("linked_account")
		logging.Error(logSubsystem, err, "Undecryptable tokens for user=%s provider=%s", session.UserID, provider)
		return nil, newAuthError(KindCorruptRecord, LinkedAccountKey(session.UserID, provider), err)
	}

	logging.Debug(logSubsystem, "Authenticated session=%s user=%s provider=%s", sessionID, session.UserID, provider)

	return &AuthenticatedCredential{
		UserID:       session.UserID,
		Provider:     provider,
		Method:       MethodSession,
		SessionID:    sessionID,
		Account:      info,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// ResolveSession validates sessionID and returns its record. The session is
// only looked up, no linked account is read.
func (b *Broker) ResolveSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	if err := b.ValidateCredentialFormat(sessionID); err != nil {
		return nil, err
	}
	return b.resolveSession(ctx, sessionID)
}

func (b *Broker) resolveSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	lookupCtx, cancel := b.lookupContext(ctx)
	defer cancel()

	started := b.clock.Now()
	session, err := b.store.GetSession(lookupCtx, sessionID)
	b.metrics.observeLookup("get_session", started, b.clock.Now())
	if err != nil {
		return nil, b.storeFailure(err, "session", "session="+sessionID)
	}

	if session == nil {
		logging.Debug(logSubsystem, "Session not found or expired: session=%s", sessionID)
		return nil, newAuthError(KindSessionNotFoundOrExpired, "session "+sessionID, nil)
	}
	if !session.ExpiresAt.IsZero() && !b.clock.Now().Before(session.ExpiresAt) {
		logging.Debug(logSubsystem, "Session past expires_at still in store: session=%s", sessionID)
		return nil, newAuthError(KindSessionNotFoundOrExpired, "session "+sessionID+" expired", nil)
	}

	return session, nil
}

func (b *Broker) resolveLinkedAccount(ctx context.Context, userID string, provider Provider) (*LinkedAccountRecord, error) {
	lookupCtx, cancel := b.lookupContext(ctx)
	defer cancel()

	started := b.clock.Now()
	account, err := b.store.GetLinkedAccount(lookupCtx, userID, provider)
	b.metrics.observeLookup("get_linked_account", started, b.clock.Now())
	if err != nil {
		return nil, b.storeFailure(err, "linked_account", fmt.Sprintf("user=%s provider=%s", userID, provider))
	}

	if account == nil {
		logging.Debug(logSubsystem, "No linked account for user=%s provider=%s", userID, provider)
		return nil, newAuthError(KindNoLinkedAccount, fmt.Sprintf("user %s provider %s", userID, provider), nil)
	}
	if account.AccessToken.IsEmpty() {
		account.Destroy()
		b.metrics.observeCorrupt("linked_account")
		logging.Error(logSubsystem, nil, "Linked account without access token for user=%s provider=%s", userID, provider)
		return nil, newAuthError(KindCorruptRecord, LinkedAccountKey(userID, provider)+" has no access_token", nil)
	}

	return account, nil
}

// storeFailure classifies a store error. Corrupt records are logged at error
// level because they indicate a problem with the writing backend.
func (b *Broker) storeFailure(err error, record, ids string) error {
	switch {
	case errors.Is(err, ErrCorruptRecord):
		b.metrics.observeCorrupt(record)
		logging.Error(logSubsystem, err, "Corrupt %s record for %s", record, ids)
		return newAuthError(KindCorruptRecord, record, err)
	default:
		logging.Warn(logSubsystem, "Credential store unavailable reading %s for %s: %v", record, ids, err)
		return newAuthError(KindStoreUnavailable, record, err)
	}
}

func (b *Broker) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.config.LookupTimeout > 0 {
		return context.WithTimeout(ctx, b.config.LookupTimeout)
	}
	return context.WithCancel(ctx)
}

// unsealTokens moves the token secrets out of the record, decrypting them when
// a cipher is configured. On error every secret involved has been destroyed.
func (b *Broker) unsealTokens(account *LinkedAccountRecord) (*Secret, *Secret, error) {
	access, refresh := account.AccessToken, account.RefreshToken
	account.AccessToken, account.RefreshToken = nil, nil
	if refresh.IsEmpty() {
		refresh.Destroy()
		refresh = nil
	}

	if b.cipher == nil {
		return access, refresh, nil
	}

	plainAccess, err := b.cipher.Decrypt(access)
	access.Destroy()
	if err != nil {
		refresh.Destroy()
		return nil, nil, fmt.Errorf("access_token: %w", err)
	}
	if refresh == nil {
		return plainAccess, nil, nil
	}

	plainRefresh, err := b.cipher.Decrypt(refresh)
	refresh.Destroy()
	if err != nil {
		plainAccess.Destroy()
		return nil, nil, fmt.Errorf("refresh_token: %w", err)
	}
	return plainAccess, plainRefresh, nil
}
