package core_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"authbroker/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "ya29.super-secret-token"

func TestSecret_Expose(t *testing.T) {
	s := core.NewSecretString(testToken)

	assert.Equal(t, testToken, s.Expose())
	assert.Equal(t, len(testToken), s.Len())
	assert.False(t, s.IsEmpty())
}

func TestSecret_FormattingIsRedacted(t *testing.T) {
	s := core.NewSecretString(testToken)

	renderings := []string{
		s.String(),
		fmt.Sprint(s),
		fmt.Sprintf("%v", s),
		fmt.Sprintf("%+v", s),
		fmt.Sprintf("%#v", s),
		fmt.Sprintf("%s", s),
		fmt.Sprintf("%q", s),
		fmt.Sprintf("%x", s),
		fmt.Sprintf("%v", struct{ Token *core.Secret }{s}),
	}
	for _, out := range renderings {
		assert.NotContains(t, out, testToken)
		assert.Contains(t, out, core.RedactedPlaceholder)
	}
}

func TestSecret_JSONIsRedacted(t *testing.T) {
	s := core.NewSecretString(testToken)

	out, err := json.Marshal(map[string]any{"token": s})

	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"[REDACTED]"}`, string(out))
}

func TestSecret_SlogIsRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logger.Info("token", "access_token", core.NewSecretString(testToken))

	assert.NotContains(t, buf.String(), testToken)
	assert.Contains(t, buf.String(), core.RedactedPlaceholder)
}

func TestSecret_UnmarshalJSON(t *testing.T) {
	var record struct {
		Token   *core.Secret `json:"token"`
		Escaped *core.Secret `json:"escaped"`
		Missing *core.Secret `json:"missing"`
	}

	err := json.Unmarshal([]byte(`{"token":"abc.def","escaped":"a\"bé","missing":null}`), &record)

	require.NoError(t, err)
	assert.Equal(t, "abc.def", record.Token.Expose())
	assert.Equal(t, "a\"bé", record.Escaped.Expose())
	assert.Nil(t, record.Missing)
}

func TestSecret_UnmarshalJSONRejectsNonString(t *testing.T) {
	var s core.Secret

	assert.Error(t, json.Unmarshal([]byte(`42`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &s))
}

func TestSecret_Destroy(t *testing.T) {
	value := []byte(testToken)
	s := core.NewSecret(value)

	s.Destroy()

	assert.True(t, s.Destroyed())
	assert.True(t, s.IsEmpty())
	assert.Equal(t, make([]byte, len(testToken)), value)
	assert.NotPanics(t, s.Destroy)
}

func TestSecret_NilIsSafe(t *testing.T) {
	var s *core.Secret

	assert.NotPanics(t, s.Destroy)
	assert.True(t, s.IsEmpty())
	assert.Equal(t, "", s.Expose())
	assert.False(t, s.Destroyed())
}

func TestSecret_Equal(t *testing.T) {
	assert.True(t, core.NewSecretString("a").Equal(core.NewSecretString("a")))
	assert.False(t, core.NewSecretString("a").Equal(core.NewSecretString("b")))
}
