package core_test

import (
	"errors"
	"fmt"
	"testing"

	"authbroker/core"

	"github.com/stretchr/testify/assert"
)

func TestAuthError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("tool call: %w", &core.AuthError{Kind: core.KindNoLinkedAccount, Reason: "user u provider github"})

	assert.ErrorIs(t, err, core.ErrNoLinkedAccount)
	assert.NotErrorIs(t, err, core.ErrTokenExpired)
	assert.Equal(t, core.KindNoLinkedAccount, core.KindOf(err))
}

func TestAuthError_CustomCodes(t *testing.T) {
	err := core.NewCustomError(core.CodeInsufficientScope, "scope missing", nil)

	assert.ErrorIs(t, err, &core.AuthError{Kind: core.KindCustom})
	assert.ErrorIs(t, err, &core.AuthError{Kind: core.KindCustom, Code: core.CodeInsufficientScope})
	assert.NotErrorIs(t, err, &core.AuthError{Kind: core.KindCustom, Code: core.CodeInvalidAPIKey})
}

func TestAuthError_Retryable(t *testing.T) {
	assert.True(t, core.ErrStoreUnavailable.Retryable())
	assert.False(t, core.ErrSessionNotFoundOrExpired.Retryable())
	assert.False(t, core.ErrTokenExpired.Retryable())
	assert.False(t, core.ErrCorruptRecord.Retryable())
}

func TestAuthError_UserMessageDoesNotDistinguishUnknownSessions(t *testing.T) {
	assert.Equal(t, core.ErrInvalidSessionFormat.UserMessage(), core.ErrSessionNotFoundOrExpired.UserMessage())
	assert.Equal(t, core.ErrSessionNotFoundOrExpired.UserMessage(), core.ErrCorruptRecord.UserMessage())
	assert.NotEqual(t, core.ErrStoreUnavailable.UserMessage(), core.ErrSessionNotFoundOrExpired.UserMessage())
}

func TestAuthError_ErrorText(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &core.AuthError{Kind: core.KindStoreUnavailable, Reason: "session", Err: cause}

	assert.Equal(t, "store_unavailable: session: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestStoreError_MatchesSentinels(t *testing.T) {
	cause := errors.New("timeout")

	unavailable := core.Unavailable("get_session", "mcp_session:x", cause)
	corrupt := core.Corrupt("get_linked_account", "linked_account:u:google", cause)

	assert.ErrorIs(t, unavailable, core.ErrStoreUnavailable)
	assert.NotErrorIs(t, unavailable, core.ErrCorruptRecord)
	assert.ErrorIs(t, corrupt, core.ErrCorruptRecord)
	assert.ErrorIs(t, corrupt, cause)
}

func TestKindOf_NonAuthError(t *testing.T) {
	assert.Equal(t, core.ErrorKind(""), core.KindOf(errors.New("plain")))
	assert.Equal(t, core.ErrorKind(""), core.KindOf(nil))
}
