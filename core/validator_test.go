package core_test

import (
	"strings"
	"testing"

	"authbroker/core"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateSessionFormat_Accepts(t *testing.T) {
	valid := []string{
		"550e8400-e29b-41d4-a716-446655440000",
		"6fa459ea-ee8a-4ca4-894e-db77e160355e",
		"00000000-0000-4000-8000-000000000000",
		"ffffffff-ffff-4fff-bfff-ffffffffffff",
	}
	for _, id := range valid {
		assert.NoError(t, core.ValidateSessionFormat(id), id)
	}
}

func TestValidateSessionFormat_AcceptsGenerated(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := uuid.NewString()
		assert.NoError(t, core.ValidateSessionFormat(id), id)
	}
}

func TestValidateSessionFormat_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":             "",
		"not a uuid":        "not-a-uuid",
		"too short":         "550e8400-e29b-41d4-a716-44665544000",
		"too long":          "550e8400-e29b-41d4-a716-4466554400000",
		"no hyphens":        "550e8400e29b41d4a716446655440000",
		"braced":            "{550e8400-e29b-41d4-a716-44665544}",
		"urn":               "urn:uuid:550e8400-e29b-41d4-a716-4466",
		"version 1":         "550e8400-e29b-11d4-a716-446655440000",
		"version 5":         "550e8400-e29b-51d4-a716-446655440000",
		"ncs variant":       "550e8400-e29b-41d4-0716-446655440000",
		"microsoft variant": "550e8400-e29b-41d4-c716-446655440000",
		"uppercase":         "550E8400-E29B-41D4-A716-446655440000",
		"non hex":           "550e8400-e29b-41d4-a716-44665544000g",
		"misplaced hyphen":  "550e840-0e29b-41d4-a716-446655440000",
		"key injection":     "550e8400-e29b-41d4-a716-4466554400:*",
		"whitespace":        " 550e8400-e29b-41d4-a716-44665544000",
		"nil uuid":          "00000000-0000-0000-0000-000000000000",
		"multibyte":         "550e8400-e29b-41d4-a716-4466554400é",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			err := core.ValidateSessionFormat(input)

			var validationErr *core.ValidationError
			assert.ErrorAs(t, err, &validationErr)
			assert.ErrorIs(t, err, core.ErrMalformedSessionID)
		})
	}
}

func TestValidateSessionFormat_ReasonDoesNotEchoInput(t *testing.T) {
	input := "zzzzzzzz-zzzz-4zzz-8zzz-zzzzzzzzzzzz"

	err := core.ValidateSessionFormat(input)

	assert.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), input))
}
