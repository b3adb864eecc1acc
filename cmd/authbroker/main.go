package main

import (
	"errors"
	"fmt"
	"os"

	"authbroker/core"
	"authbroker/logging"

	"github.com/spf13/cobra"
)

// Exit codes for the CLI.
const (
	ExitCodeSuccess    = 0
	ExitCodeError      = 1
	ExitCodeAuthFailed = 2
	ExitCodeRetryable  = 3
)

var version = "dev"

var configPath string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "authbroker",
		Short: "Resolve MCP session ids to linked-account OAuth credentials",
		Long: `authbroker turns the session id an MCP client presents into the OAuth
tokens of the account the user linked for a provider. It serves MCP tools over
stdio or streamable HTTP and offers commands for inspecting sessions.`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", getEnv("CONFIG_PATH", defaultConfigPath), "Path to the YAML config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newValidateCmd())

	return rootCmd
}

// setup loads the config and initializes logging.
func setup() (*AppConfig, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(config.Log.Level)
	logging.Init(level, logging.Format(config.Log.Format), os.Stderr)

	return config, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps authentication failures to distinct codes for scripting.
func exitCode(err error) int {
	var authErr *core.AuthError
	if !errors.As(err, &authErr) {
		return ExitCodeError
	}
	if authErr.Retryable() {
		return ExitCodeRetryable
	}
	return ExitCodeAuthFailed
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
