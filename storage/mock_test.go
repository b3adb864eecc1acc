package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"authbroker/core"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_Fixtures(t *testing.T) {
	store := NewMockStoreWithFixtures(nil)
	ctx := context.Background()

	session, err := store.GetSession(ctx, Session1)
	require.NoError(t, err)
	assert.Equal(t, User1, session.UserID)

	account, err := store.GetLinkedAccount(ctx, User1, core.ProviderGoogle)
	require.NoError(t, err)
	defer account.Destroy()
	assert.Equal(t, User1AccessToken, account.AccessToken.Expose())

	_, err = store.GetLinkedAccount(ctx, User2, core.ProviderGoogle)
	assert.ErrorIs(t, err, core.ErrCorruptRecord)

	assert.Equal(t, 1, store.SessionReads)
	assert.Equal(t, 2, store.LinkedAccountReads)
}

func TestMockStore_AbsentKeys(t *testing.T) {
	store := NewMockStoreWithFixtures(nil)
	ctx := context.Background()

	session, err := store.GetSession(ctx, "00000000-0000-4000-8000-000000000000")
	assert.NoError(t, err)
	assert.Nil(t, session)

	account, err := store.GetLinkedAccount(ctx, User1, core.ProviderMicrosoft)
	assert.NoError(t, err)
	assert.Nil(t, account)
}

func TestMockStore_ReadsReturnIndependentSecrets(t *testing.T) {
	store := NewMockStoreWithFixtures(nil)
	ctx := context.Background()

	first, err := store.GetLinkedAccount(ctx, User1, core.ProviderGoogle)
	require.NoError(t, err)
	second, err := store.GetLinkedAccount(ctx, User1, core.ProviderGoogle)
	require.NoError(t, err)

	first.Destroy()

	assert.True(t, first.AccessToken.Destroyed())
	assert.Equal(t, User1AccessToken, second.AccessToken.Expose())
	second.Destroy()
}

func TestMockStore_ReadKeysOptIn(t *testing.T) {
	store := NewMockStoreWithFixtures(nil)
	ctx := context.Background()

	store.GetSession(ctx, Session1)
	assert.Empty(t, store.ReadKeys)
	assert.Equal(t, 1, store.Reads())

	store.RecordKeys = true
	store.GetSession(ctx, Session1)
	store.GetLinkedAccount(ctx, User1, core.ProviderGoogle)
	assert.Equal(t, []string{"mcp_session:" + Session1, "linked_account:user123:google"}, store.ReadKeys)
}

func TestMockStore_EntryExpiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(FixtureNow)
	store := NewMockStore(clock.Now)
	raw, err := MarshalSession(SessionRecord1)
	require.NoError(t, err)
	store.Put(core.SessionKey("", Session1), raw, FixtureNow.Add(time.Minute))

	session, err := store.GetSession(context.Background(), Session1)
	require.NoError(t, err)
	assert.NotNil(t, session)

	clock.Advance(time.Minute)

	session, err = store.GetSession(context.Background(), Session1)
	assert.NoError(t, err)
	assert.Nil(t, session)
}

func TestMockStore_Unavailable(t *testing.T) {
	store := NewMockStoreWithFixtures(nil)
	store.Err = errors.New("connection refused")

	_, err := store.GetSession(context.Background(), Session1)
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
	assert.ErrorIs(t, store.Ping(context.Background()), core.ErrStoreUnavailable)
}

func TestMockStore_CancelledContext(t *testing.T) {
	store := NewMockStoreWithFixtures(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.GetSession(ctx, Session1)

	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}
