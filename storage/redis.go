package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"authbroker/core"

	"github.com/redis/go-redis/v9"
)

const connectTimeout = 2 * time.Second

// wrongTypePrefix starts the server reply for a GET on a key that does not
// hold a string.
const wrongTypePrefix = "WRONGTYPE"

// RedisStore reads credential records from Redis. The go-redis client is a
// connection pool safe for concurrent use; each read checks a connection out
// for the duration of one GET.
type RedisStore struct {
	client        *redis.Client
	sessionPrefix string
}

// NewRedisStore connects to url (redis:// or rediss://) and verifies the
// connection with a PING.
func NewRedisStore(ctx context.Context, url, sessionPrefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	store := NewRedisStoreFromClient(redis.NewClient(opts), sessionPrefix)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		store.Close()
		return nil, err
	}

	return store, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, sessionPrefix string) *RedisStore {
	return &RedisStore{
		client:        client,
		sessionPrefix: sessionPrefix,
	}
}

func (r *RedisStore) GetSession(ctx context.Context, sessionID string) (*core.SessionRecord, error) {
	key := core.SessionKey(r.sessionPrefix, sessionID)
	raw, err := r.get(ctx, opGetSession, key)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeSession(key, sessionID, raw)
}

func (r *RedisStore) GetLinkedAccount(ctx context.Context, userID string, provider core.Provider) (*core.LinkedAccountRecord, error) {
	key := core.LinkedAccountKey(userID, provider)
	raw, err := r.get(ctx, opGetLinkedAccount, key)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeLinkedAccount(key, userID, provider, raw)
}

func (r *RedisStore) get(ctx context.Context, op, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	var replyErr redis.Error
	if errors.As(err, &replyErr) && strings.HasPrefix(replyErr.Error(), wrongTypePrefix) {
		return nil, core.Corrupt(op, key, err)
	}
	if err != nil {
		return nil, core.Unavailable(op, key, err)
	}
	return raw, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return core.Unavailable("ping", "", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
