package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tokenkeeper/internal/commands"
)

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the GitLab access token stored in the OS keyring",
}

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a GitLab access token in the OS keyring",
	Long: `Prompt for a GitLab access token (input is not echoed) and store it in the
OS keyring for the resolved host. When stdin is not a terminal the first line
of stdin is used, e.g. echo "$TOKEN" | tokenkeeper auth login --host gitlab.com`,
	RunE: runAuthLogin,
}

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored GitLab access token",
	RunE:  runAuthLogout,
}

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credential source provides the access token",
	RunE:  runAuthStatus,
}

//nolint:gochecknoinits // Cobra CLI pattern for command registration
func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd)

	authLoginCmd.Flags().Bool("verify", true, "Check the token's scopes with GitLab before storing it")
	authStatusCmd.Flags().Bool("verify", false, "Check the token's scopes with GitLab")
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}

	verify, _ := cmd.Flags().GetBool("verify")
	s := settings()
	login := commands.NewAuthLoginCommand(newResolver(a, s), a.GitLabServiceFactory,
		a.CredentialStore, a.PasswordReader, a.Logger)

	ctx, cancel := commandContext(cmd)
	defer cancel()
	result, err := login.Execute(ctx, commands.AuthLoginRequest{Settings: s, Verify: verify})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	a.UI.Success("Stored access token for %s", result.Host)
	if len(result.Scopes) > 0 {
		a.UI.Field("scopes", strings.Join(result.Scopes, ", "))
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}

	s := settings()
	logout := commands.NewAuthLogoutCommand(newResolver(a, s), a.CredentialStore, a.Logger)

	ctx, cancel := commandContext(cmd)
	defer cancel()
	host, err := logout.Execute(ctx, commands.AuthLogoutRequest{Settings: s})
	if err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	a.UI.Success("Removed stored access token for %s", host)
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}

	verify, _ := cmd.Flags().GetBool("verify")
	s := settings()
	status := commands.NewAuthStatusCommand(newResolver(a, s), a.GitLabServiceFactory, a.Logger)

	ctx, cancel := commandContext(cmd)
	defer cancel()
	result, err := status.Execute(ctx, commands.AuthStatusRequest{Settings: s, Verify: verify})
	if err != nil {
		return err
	}

	a.UI.Success("Access token for %s found", result.Host)
	a.UI.Field("source", result.Source)
	if verify {
		a.UI.Field("scopes", strings.Join(result.Scopes, ", "))
	}
	return nil
}
