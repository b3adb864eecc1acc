package providers

import (
	"context"

	"authbroker/core"
)

// NoOpProvider is used when authentication is disabled. Every call is rejected.
type NoOpProvider struct{}

func NewNoOpProvider() *NoOpProvider {
	return &NoOpProvider{}
}

func (NoOpProvider) Method() core.AuthMethod {
	return core.MethodNone
}

func (NoOpProvider) ValidateCredentialFormat(string) error {
	return nil
}

func (NoOpProvider) Authenticate(context.Context, core.CredentialInput) (*core.AuthenticatedCredential, error) {
	return nil, core.NewCustomError(core.CodeAuthDisabled, "authentication is disabled", nil)
}
