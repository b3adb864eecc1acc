package providers

import (
	"context"
	"sync"

	"authbroker/core"
)

const MethodMock core.AuthMethod = "mock"

// Predefined test credentials
const (
	ValidCredential1  = "mock_credential_1"
	ValidCredential2  = "mock_credential_2"
	ExpiredCredential = "mock_credential_expired"
)

// Predefined users behind the test credentials
const (
	MockUser1 = "mock_user_1"
	MockUser2 = "mock_user_2"
)

// MockProvider is a test implementation of core.AuthProvider
type MockProvider struct {
	mu    sync.Mutex
	users map[string]string

	// track method calls for verification
	AuthenticateCalls int
	LastInput         core.CredentialInput
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		users: map[string]string{
			ValidCredential1: MockUser1,
			ValidCredential2: MockUser2,
		},
	}
}

func (m *MockProvider) Method() core.AuthMethod {
	return MethodMock
}

func (m *MockProvider) ValidateCredentialFormat(credential string) error {
	if credential == "" {
		return core.NewCustomError(core.CodeInvalidToken, "credential cannot be empty", nil)
	}
	return nil
}

func (m *MockProvider) Authenticate(ctx context.Context, input core.CredentialInput) (*core.AuthenticatedCredential, error) {
	m.mu.Lock()
	m.AuthenticateCalls++
	m.LastInput = input
	m.mu.Unlock()

	if input.Credential == ExpiredCredential {
		return nil, core.ErrTokenExpired
	}

	userID, ok := m.users[input.Credential]
	if !ok {
		return nil, core.ErrSessionNotFoundOrExpired
	}

	return &core.AuthenticatedCredential{
		UserID:      userID,
		Provider:    input.Provider,
		Method:      MethodMock,
		AccessToken: core.NewSecretString("mock_access_token_for_" + userID),
	}, nil
}
