package core

import (
	"github.com/google/uuid"
)

const sessionIDLength = 36

// ValidateSessionFormat accepts only canonical UUIDv4 text: 36 lowercase hex
// characters hyphenated 8-4-4-4-12, version nibble 4, RFC 4122 variant.
// It performs no I/O and must run before a session id is used as a store key.
func ValidateSessionFormat(input string) error {
	if input == "" {
		return &ValidationError{Reason: "session id is empty"}
	}
	if len(input) != sessionIDLength {
		return &ValidationError{Reason: "session id must be 36 characters"}
	}

	for i := 0; i < len(input); i++ {
		c := input[i]
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return &ValidationError{Reason: "session id must be hyphenated as 8-4-4-4-12"}
			}
		default:
			if !isHex(c) {
				return &ValidationError{Reason: "session id contains non-hexadecimal characters"}
			}
		}
	}

	id, err := uuid.Parse(input)
	if err != nil {
		return &ValidationError{Reason: "session id is not a valid UUID"}
	}
	if id.Version() != 4 {
		return &ValidationError{Reason: "session id must be a version 4 UUID"}
	}
	if id.Variant() != uuid.RFC4122 {
		return &ValidationError{Reason: "session id must use the RFC 4122 variant"}
	}
	if id.String() != input {
		return &ValidationError{Reason: "session id must be lowercase"}
	}

	return nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
