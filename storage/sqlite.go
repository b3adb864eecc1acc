package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"authbroker/core"

	_ "modernc.org/sqlite"
)

//go:embed schema/sqlite/schema.sql
var sqliteSchema string

// SQLiteStore keeps the session keyspace in a single-file key/value table for
// local development without a Redis server. Expiry mirrors a store TTL: rows
// past expires_at read as absent.
type SQLiteStore struct {
	db            *sql.DB
	sessionPrefix string
	now           func() time.Time
}

func NewSQLiteStore(dbPath, sessionPrefix string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{
		db:            db,
		sessionPrefix: sessionPrefix,
		now:           time.Now,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(sqliteSchema)
	return err
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return core.Unavailable("ping", "", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*core.SessionRecord, error) {
	key := core.SessionKey(s.sessionPrefix, sessionID)
	raw, err := s.get(ctx, opGetSession, key)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeSession(key, sessionID, raw)
}

func (s *SQLiteStore) GetLinkedAccount(ctx context.Context, userID string, provider core.Provider) (*core.LinkedAccountRecord, error) {
	key := core.LinkedAccountKey(userID, provider)
	raw, err := s.get(ctx, opGetLinkedAccount, key)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeLinkedAccount(key, userID, provider, raw)
}

func (s *SQLiteStore) get(ctx context.Context, op, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM kv_records
		WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)
	`

	var raw []byte
	err := s.db.QueryRowContext(ctx, query, key, s.now().Unix()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.Unavailable(op, key, err)
	}
	return raw, nil
}

// Put writes value under key. A zero expiresAt keeps the row until deleted.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	query := `
		INSERT INTO kv_records (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`

	var expires any
	if !expiresAt.IsZero() {
		expires = expiresAt.Unix()
	}

	_, err := s.db.ExecContext(ctx, query, key, value, expires)
	return err
}

func (s *SQLiteStore) PutSession(ctx context.Context, session *core.SessionRecord) error {
	raw, err := MarshalSession(session)
	if err != nil {
		return err
	}
	return s.Put(ctx, core.SessionKey(s.sessionPrefix, session.SessionID), raw, session.ExpiresAt)
}

func (s *SQLiteStore) PutLinkedAccount(ctx context.Context, account *LinkedAccountPayload) error {
	raw, err := account.Marshal()
	if err != nil {
		return err
	}
	defer clear(raw)
	return s.Put(ctx, account.Key(), raw, time.Time{})
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_records WHERE key = ?`, key)
	return err
}

// DeleteExpired removes rows past their expiry.
func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_records WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		s.now().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
