package storage

import (
	"context"
	"fmt"
	"strings"

	"authbroker/core"

	"github.com/valkey-io/valkey-go"
)

// ValkeyStore reads credential records from a Valkey server. valkey-go
// pipelines concurrent commands over shared connections.
type ValkeyStore struct {
	client        valkey.Client
	sessionPrefix string
}

// NewValkeyStore connects to url (redis://, rediss:// or unix://).
func NewValkeyStore(ctx context.Context, url, sessionPrefix string) (*ValkeyStore, error) {
	opt, err := valkey.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid valkey url: %w", err)
	}

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, core.Unavailable("connect", "", err)
	}

	store := NewValkeyStoreFromClient(client, sessionPrefix)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		store.Close()
		return nil, err
	}

	return store, nil
}

func NewValkeyStoreFromClient(client valkey.Client, sessionPrefix string) *ValkeyStore {
	return &ValkeyStore{
		client:        client,
		sessionPrefix: sessionPrefix,
	}
}

func (v *ValkeyStore) GetSession(ctx context.Context, sessionID string) (*core.SessionRecord, error) {
	key := core.SessionKey(v.sessionPrefix, sessionID)
	raw, err := v.get(ctx, opGetSession, key)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeSession(key, sessionID, raw)
}

func (v *ValkeyStore) GetLinkedAccount(ctx context.Context, userID string, provider core.Provider) (*core.LinkedAccountRecord, error) {
	key := core.LinkedAccountKey(userID, provider)
	raw, err := v.get(ctx, opGetLinkedAccount, key)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeLinkedAccount(key, userID, provider, raw)
}

func (v *ValkeyStore) get(ctx context.Context, op, key string) ([]byte, error) {
	raw, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if replyErr, ok := valkey.IsValkeyErr(err); ok && strings.HasPrefix(replyErr.Error(), wrongTypePrefix) {
		return nil, core.Corrupt(op, key, err)
	}
	if err != nil {
		return nil, core.Unavailable(op, key, err)
	}
	return raw, nil
}

func (v *ValkeyStore) Ping(ctx context.Context) error {
	if err := v.client.Do(ctx, v.client.B().Ping().Build()).Error(); err != nil {
		return core.Unavailable("ping", "", err)
	}
	return nil
}

func (v *ValkeyStore) Close() error {
	v.client.Close()
	return nil
}
