package providers

import (
	"context"
	"errors"
	"time"

	"authbroker/core"
	"authbroker/logging"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

var ErrJWTSecretRequired = errors.New("jwt secret is required")

// Claims are the bearer token claims issued by the identity backend.
type Claims struct {
	UserID   string `json:"user_id"`
	Provider string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig configures JWTProvider.
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// JWTProvider authenticates HS256 bearer tokens signed with a secret shared with
// the identity backend. It is an example of a custom strategy plugged in behind
// core.AuthProvider.
type JWTProvider struct {
	config *JWTConfig
	clock  clockwork.Clock
}

func NewJWTProvider(config *JWTConfig, clock clockwork.Clock) (*JWTProvider, error) {
	if config == nil || config.Secret == "" {
		return nil, ErrJWTSecretRequired
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &JWTProvider{config: config, clock: clock}, nil
}

func (p *JWTProvider) Method() core.AuthMethod {
	return core.MethodJWT
}

func (p *JWTProvider) ValidateCredentialFormat(credential string) error {
	if credential == "" {
		return core.NewCustomError(core.CodeInvalidToken, "bearer token cannot be empty", nil)
	}
	return nil
}

func (p *JWTProvider) Authenticate(ctx context.Context, input core.CredentialInput) (*core.AuthenticatedCredential, error) {
	if err := p.ValidateCredentialFormat(input.Credential); err != nil {
		return nil, err
	}

	claims, err := p.parse(input.Credential)
	if err != nil {
		logging.Debug("JWT", "Rejected bearer token: %v", err)
		return nil, core.NewCustomError(core.CodeInvalidToken, "invalid bearer token", err)
	}

	provider := input.Provider
	if provider == "" {
		provider = core.Provider(claims.Provider)
	}

	return &core.AuthenticatedCredential{
		UserID:      claims.UserID,
		Provider:    provider,
		Method:      core.MethodJWT,
		AccessToken: core.NewSecretString(input.Credential),
	}, nil
}

func (p *JWTProvider) parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if p.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.config.Issuer))
	}
	if p.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(p.config.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(p.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user_id or sub claim")
	}
	return claims, nil
}

// SignToken issues a token the way the identity backend does. Used by tests and
// local tooling.
func SignToken(config *JWTConfig, userID string, provider core.Provider, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID:   userID,
		Provider: string(provider),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    config.Issuer,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	if config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Secret))
}
