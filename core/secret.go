package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// RedactedPlaceholder is what every textual rendering of a Secret produces.
const RedactedPlaceholder = "[REDACTED]"

var errSecretNotString = errors.New("secret must be a JSON string")

// Secret holds sensitive material such as an OAuth access or refresh token.
//
// The value lives in a byte slice owned by the Secret so that Destroy can
// overwrite it in place. This bounds how long the token stays in memory; it is
// best effort and does not cover copies the caller makes with Expose, nor copies
// made by the Go runtime or a store driver before the bytes reached the Secret.
//
// Every formatting path (fmt verbs, slog, JSON, text marshalling) yields
// RedactedPlaceholder. A Secret is safe for concurrent reads; Destroy must not
// race with a caller still using the bytes returned by Bytes.
type Secret struct {
	mu        sync.RWMutex
	value     []byte
	destroyed bool
}

// NewSecret takes ownership of value. The caller must not retain or modify it.
func NewSecret(value []byte) *Secret {
	return &Secret{value: value}
}

// NewSecretString copies value into a new Secret. The original string cannot be
// scrubbed, so prefer NewSecret when the material is already in a byte slice.
func NewSecretString(value string) *Secret {
	return &Secret{value: []byte(value)}
}

// Bytes returns the contained value without copying. The slice is only valid
// until Destroy is called.
func (s *Secret) Bytes() []byte {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Expose returns the value as a string, for APIs such as HTTP headers that need
// one. The returned copy is outside the Secret's control. Never log it.
func (s *Secret) Expose() string {
	return string(s.Bytes())
}

// Len returns the length of the contained value.
func (s *Secret) Len() int {
	return len(s.Bytes())
}

// IsEmpty reports whether the Secret is nil, empty or destroyed.
func (s *Secret) IsEmpty() bool {
	return s.Len() == 0
}

// Equal compares the contents of two secrets.
func (s *Secret) Equal(other *Secret) bool {
	return bytes.Equal(s.Bytes(), other.Bytes())
}

// Destroy overwrites the backing memory and releases it. Safe to call more than
// once and on a nil Secret.
func (s *Secret) Destroy() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	clear(s.value)
	runtime.KeepAlive(s.value)
	s.value = nil
	s.destroyed = true
}

// Destroyed reports whether Destroy has been called.
func (s *Secret) Destroyed() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}

func (s *Secret) String() string {
	return RedactedPlaceholder
}

func (s *Secret) GoString() string {
	return "core.Secret{" + RedactedPlaceholder + "}"
}

// Format covers every fmt verb, including %x and %q which would otherwise
// bypass String.
func (s *Secret) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('#') {
		fmt.Fprint(f, s.GoString())
		return
	}
	fmt.Fprint(f, RedactedPlaceholder)
}

// LogValue implements slog.LogValuer.
func (s *Secret) LogValue() slog.Value {
	return slog.StringValue(RedactedPlaceholder)
}

func (s *Secret) MarshalText() ([]byte, error) {
	return []byte(RedactedPlaceholder), nil
}

func (s *Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + RedactedPlaceholder + `"`), nil
}

// UnmarshalJSON decodes a JSON string into bytes owned by the Secret. Strings
// without escape sequences are copied directly so no intermediate Go string is
// created.
func (s *Secret) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errSecretNotString
	}
	raw := data[1 : len(data)-1]

	var value []byte
	if bytes.IndexByte(raw, '\\') < 0 {
		value = make([]byte, len(raw))
		copy(value, raw)
	} else {
		var decoded string
		if err := json.Unmarshal(data, &decoded); err != nil {
			return err
		}
		value = []byte(decoded)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.value)
	s.value = value
	s.destroyed = false
	return nil
}
