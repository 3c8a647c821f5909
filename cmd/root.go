package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"graphgate/internal/config"
)

// Exit codes for CLI usage.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error.
	ExitCodeError = 1
	// ExitCodeConfig indicates the configuration failed validation.
	ExitCodeConfig = 2
)

// rootCmd is the base command for the graphgate application.
var rootCmd = &cobra.Command{
	Use:   "graphgate",
	Short: "Stateless Microsoft Graph token custody for MCP tools",
	Long: `graphgate lets MCP tools act on Microsoft Graph on behalf of a signed-in
user without holding any server-side token state. The refresh grant lives
encrypted in a cookie the user's client presents with each call; every
replica can serve every user.`,
	// Errors are reported by Execute with an exit code; Cobra's usage dump
	// on top of that is just noise.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main with
// the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a semantic code on failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "graphgate version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps error types to exit codes for scripting.
func getExitCode(err error) int {
	var validation *config.ValidationError
	if errors.As(err, &validation) {
		return ExitCodeConfig
	}
	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
