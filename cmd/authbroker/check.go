package main

import (
	"context"
	"time"

	"authbroker/core"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "check <session-id>",
		Short: "Resolve a session and report its linked account",
		Long: `check runs the full session lookup against the configured store and
prints the user, provider and token status. Tokens are never printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := setup()
			if err != nil {
				return err
			}
			config.Auth.Method = string(core.MethodSession)

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			store, err := initStore(ctx, config)
			if err != nil {
				return err
			}
			defer store.Close()

			clock := clockwork.NewRealClock()
			authProvider, err := initProvider(config, store, nil, clock)
			if err != nil {
				return err
			}

			return runCheck(ctx, cmd, authProvider, clock, args[0], core.Provider(provider))
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Linked account provider (default: the configured default provider)")
	return cmd
}

func runCheck(ctx context.Context, cmd *cobra.Command, provider core.AuthProvider, clock clockwork.Clock, sessionID string, linked core.Provider) error {
	cred, err := provider.Authenticate(ctx, core.CredentialInput{
		Credential: sessionID,
		Provider:   linked,
	})
	if err != nil {
		printf(cmd, "FAILED: %s\n", core.KindOf(err))
		return err
	}
	defer cred.Close()

	printf(cmd, "user_id:       %s\n", cred.UserID)
	printf(cmd, "provider:      %s\n", cred.Provider)
	printf(cmd, "token_status:  %s\n", core.TokenStatus(cred.Account, clock.Now()))
	if cred.Account != nil {
		printf(cmd, "token_expires: %s\n", cred.Account.ExpiresAt.UTC().Format(time.RFC3339))
		printf(cmd, "email:         %s\n", cred.Account.Email)
	}
	printf(cmd, "refresh_token: %t\n", !cred.RefreshToken.IsEmpty())
	return nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <session-id>",
		Short: "Check that a session id is a canonical UUIDv4 without touching the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := core.ValidateSessionFormat(args[0]); err != nil {
				return err
			}
			printf(cmd, "valid\n")
			return nil
		},
	}
}
