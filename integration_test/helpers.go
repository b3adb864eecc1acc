package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"authbroker/core"
	"authbroker/storage"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type HealthResponse struct {
	Status     string `json:"status"`
	AuthMethod string `json:"auth_method"`
	Error      string `json:"error"`
}

// seeder writes records the way the session-issuing backend does and remembers
// every key so the test can remove them.
type seeder struct {
	client *redis.Client
	keys   []string
}

func (s *seeder) session(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC().Truncate(time.Second)
	sessionID := uuid.NewString()
	raw, err := storage.MarshalSession(&core.SessionRecord{
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return "", err
	}
	return sessionID, s.set(ctx, core.SessionKey("", sessionID), raw, ttl)
}

func (s *seeder) linkedAccount(ctx context.Context, account *storage.LinkedAccountPayload) error {
	raw, err := account.Marshal()
	if err != nil {
		return err
	}
	return s.set(ctx, account.Key(), raw, 0)
}

func (s *seeder) raw(ctx context.Context, key, value string) error {
	return s.set(ctx, key, []byte(value), 0)
}

func (s *seeder) hash(ctx context.Context, key string, fields ...string) error {
	s.keys = append(s.keys, key)
	values := make([]any, len(fields))
	for i, f := range fields {
		values[i] = f
	}
	return s.client.HSet(ctx, key, values...).Err()
}

func (s *seeder) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.keys = append(s.keys, key)
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *seeder) cleanup(ctx context.Context) error {
	if len(s.keys) == 0 {
		return nil
	}
	err := s.client.Del(ctx, s.keys...).Err()
	s.keys = nil
	return err
}

func newUserID() string {
	return "it-user-" + uuid.NewString()[:8]
}

func googleAccount(userID, accessToken string, expiresIn time.Duration) *storage.LinkedAccountPayload {
	refresh := "1//refresh-" + userID
	now := time.Now().UTC().Truncate(time.Second)
	return &storage.LinkedAccountPayload{
		UserID:         userID,
		Provider:       core.ProviderGoogle,
		ProviderUserID: "google-" + userID,
		Email:          userID + "@example.com",
		DisplayName:    "Integration User",
		AccessToken:    accessToken,
		RefreshToken:   &refresh,
		ExpiresAt:      now.Add(expiresIn),
		Scopes:         []string{"openid", "email"},
		LinkedAt:       now.Add(-time.Hour),
	}
}

func getHealth(baseURL string) (*HealthResponse, int, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var result HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &result, resp.StatusCode, nil
}
