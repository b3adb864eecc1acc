// Package tools exposes the authentication broker to MCP clients. Each tool
// takes a credential as an argument, authenticates it through the configured
// core.AuthProvider and reports non-secret facts about the result.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"authbroker/core"
	"authbroker/logging"

	"github.com/jonboulle/clockwork"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName = "authbroker"

	ToolSessionInfo         = "session_info"
	ToolUserProfile         = "user_profile"
	ToolAuthenticatedAction = "authenticated_action"

	logSubsystem = "Tools"
)

// Tools holds the handlers. It is stateless apart from the shared provider.
type Tools struct {
	provider core.AuthProvider
	clock    clockwork.Clock
}

func New(provider core.AuthProvider, clock clockwork.Clock) *Tools {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tools{provider: provider, clock: clock}
}

// NewMCPServer builds an MCP server with every tool registered.
func NewMCPServer(version string, t *Tools) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
	)
	t.Register(s)
	return s
}

// Register adds the tools to s. session_info is only offered when the provider
// resolves sessions.
func (t *Tools) Register(s *server.MCPServer) {
	if _, ok := t.provider.(core.SessionResolver); ok {
		sessionInfo := mcp.NewTool(ToolSessionInfo,
			mcp.WithDescription("Validate a session id and report the session's user and expiry"),
			mcp.WithString("session_id",
				mcp.Required(),
				mcp.Description("Session id issued by the identity backend (UUIDv4)"),
			),
		)
		s.AddTool(sessionInfo, t.HandleSessionInfo)
	}

	userProfile := mcp.NewTool(ToolUserProfile,
		mcp.WithDescription("Report the profile of the account linked for a provider. Never returns tokens"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id, API key or bearer token, depending on the configured auth method"),
		),
		mcp.WithString("provider",
			mcp.Description("Linked account provider, e.g. google or github. Defaults to google"),
		),
	)
	s.AddTool(userProfile, t.HandleUserProfile)

	authenticatedAction := mcp.NewTool(ToolAuthenticatedAction,
		mcp.WithDescription("Authenticate a credential and authorize an action on the user's behalf"),
		mcp.WithString("credential",
			mcp.Required(),
			mcp.Description("Session id, API key or bearer token, depending on the configured auth method"),
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Name of the action to authorize"),
		),
		mcp.WithString("provider",
			mcp.Description("Linked account provider for session authentication"),
		),
		mcp.WithString("required_scopes",
			mcp.Description("Comma-separated scopes the linked account must have been granted"),
		),
	)
	s.AddTool(authenticatedAction, t.HandleAuthenticatedAction)
}

type sessionInfo struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Status    string    `json:"status"`
}

func (t *Tools) HandleSessionInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id argument is required"), nil
	}

	resolver, ok := t.provider.(core.SessionResolver)
	if !ok {
		return mcp.NewToolResultError("session_info requires session authentication"), nil
	}

	session, err := resolver.ResolveSession(ctx, sessionID)
	if err != nil {
		return t.errorResult(ToolSessionInfo, err), nil
	}

	return jsonResult(sessionInfo{
		SessionID: session.SessionID,
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
		Status:    "active",
	})
}

type userProfile struct {
	UserID         string        `json:"user_id"`
	Provider       core.Provider `json:"provider,omitempty"`
	AuthMethod     string        `json:"auth_method"`
	ProviderUserID string        `json:"provider_user_id,omitempty"`
	Email          string        `json:"email,omitempty"`
	DisplayName    string        `json:"display_name,omitempty"`
	Scopes         []string      `json:"scopes,omitempty"`
	LinkedAt       time.Time     `json:"linked_at,omitzero"`
	TokenExpiresAt time.Time     `json:"token_expires_at,omitzero"`
	TokenStatus    string        `json:"token_status"`
}

func (t *Tools) HandleUserProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	credential, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id argument is required"), nil
	}

	cred, err := t.provider.Authenticate(ctx, core.CredentialInput{
		Credential: credential,
		Provider:   core.Provider(request.GetString("provider", "")),
	})
	if err != nil {
		return t.errorResult(ToolUserProfile, err), nil
	}
	defer cred.Close()

	profile := userProfile{
		UserID:      cred.UserID,
		Provider:    cred.Provider,
		AuthMethod:  string(cred.Method),
		TokenStatus: core.TokenStatus(cred.Account, t.clock.Now()),
	}
	if info := cred.Account; info != nil {
		profile.ProviderUserID = info.ProviderUserID
		profile.Email = info.Email
		profile.DisplayName = info.DisplayName
		profile.Scopes = info.Scopes
		profile.LinkedAt = info.LinkedAt
		profile.TokenExpiresAt = info.ExpiresAt
	}

	return jsonResult(profile)
}

type actionResult struct {
	Status         string        `json:"status"`
	Action         string        `json:"action"`
	UserID         string        `json:"user_id"`
	AuthType       string        `json:"auth_type"`
	Provider       core.Provider `json:"provider,omitempty"`
	TokenType      string        `json:"token_type"`
	TokenExpiresAt time.Time     `json:"token_expires_at,omitzero"`
}

func (t *Tools) HandleAuthenticatedAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	credential, err := request.RequireString("credential")
	if err != nil {
		return mcp.NewToolResultError("credential argument is required"), nil
	}
	action, err := request.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("action argument is required"), nil
	}

	cred, err := t.provider.Authenticate(ctx, core.CredentialInput{
		Credential:     credential,
		Provider:       core.Provider(request.GetString("provider", "")),
		RequiredScopes: splitScopes(request.GetString("required_scopes", "")),
	})
	if err != nil {
		return t.errorResult(ToolAuthenticatedAction, err), nil
	}
	defer cred.Close()

	// The outbound call itself belongs to the caller; the token source is what
	// an oauth2-aware client would be built from.
	token, err := cred.TokenSource().Token()
	if err != nil {
		return t.errorResult(ToolAuthenticatedAction, err), nil
	}

	logging.Info(logSubsystem, "Authorized action=%s user=%s method=%s", action, cred.UserID, cred.Method)

	return jsonResult(actionResult{
		Status:         "authorized",
		Action:         action,
		UserID:         cred.UserID,
		AuthType:       string(cred.Method),
		Provider:       cred.Provider,
		TokenType:      token.Type(),
		TokenExpiresAt: token.Expiry,
	})
}

// errorResult turns an authentication failure into a tool error carrying only
// the client-safe message.
func (t *Tools) errorResult(tool string, err error) *mcp.CallToolResult {
	var authErr *core.AuthError
	if errors.As(err, &authErr) {
		logging.Info(logSubsystem, "Tool %s rejected: kind=%s", tool, authErr.Kind)
		return mcp.NewToolResultError(authErr.UserMessage())
	}
	logging.Error(logSubsystem, err, "Tool %s failed", tool)
	return mcp.NewToolResultError("internal error")
}

func splitScopes(list string) []string {
	var scopes []string
	for _, scope := range strings.Split(list, ",") {
		if scope = strings.TrimSpace(scope); scope != "" {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
