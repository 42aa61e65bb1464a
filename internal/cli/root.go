// Package cli wires the tokenkeeper commands to cobra and viper.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tokenkeeper/internal/app"
	"tokenkeeper/internal/logging"
	"tokenkeeper/internal/ui"
)

const (
	envPrefix      = "TOKENKEEPER"
	defaultTimeout = 2 * time.Minute
)

//nolint:gochecknoglobals // Cobra CLI pattern for persistent flag variables
var (
	cfgFile   string
	verbose   bool
	colorFlag string

	application *app.App
	initErr     error
)

// VersionInfo holds build information.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
	BuiltBy string
}

//nolint:gochecknoglobals // Package-level version info for CLI commands
var versionInfo = VersionInfo{
	Version: "dev",
	Commit:  "none",
	Date:    "unknown",
	BuiltBy: "unknown",
}

// SetVersionInfo updates the build information.
func SetVersionInfo(v, c, d, b string) {
	versionInfo.Version = v
	versionInfo.Commit = c
	versionInfo.Date = d
	versionInfo.BuiltBy = b
}

// GetVersionInfo returns the current version information.
func GetVersionInfo() VersionInfo {
	return versionInfo
}

// GetApp returns the initialized application instance.
func GetApp() (*app.App, error) {
	if initErr != nil {
		return nil, initErr
	}
	if application == nil {
		return nil, errors.New("application not initialized")
	}
	return application, nil
}

//nolint:gochecknoglobals // Cobra CLI pattern for root command
var rootCmd = &cobra.Command{
	Use:   "tokenkeeper",
	Short: "Keep a GitLab project's CI publish token valid",
	Long: `tokenkeeper makes sure a GitLab project has a valid project access token
and that its value is stored in the CI_PUBLISH_TOKEN CI/CD variable.

Each run inspects the project, decides on exactly one action (create, rotate,
rotate and set, or skip) and performs only the writes that action needs.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command and exits 1 on any failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra CLI pattern for flag initialization
func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/tokenkeeper/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&colorFlag, "color", "auto", "When to use colors: auto, always or never")

	flags.String("host", "", "GitLab host (default: inferred from the git remote or pipeline)")
	flags.String("scheme", "", "GitLab URL scheme, http or https (default https)")
	flags.String("project", "", "GitLab project path, e.g. group/app")
	flags.Int("user-id", 0, "Numeric id of the acting GitLab user (default: looked up)")
	flags.String("remote", "origin", "Git remote used to infer host and project")
	flags.String("token", "", "GitLab access token (prefer GITLAB_TOKEN or the keyring)")
	flags.Int("token-ttl-days", 0, "Lifetime of created and rotated tokens in days (default 365)")
	flags.Duration("lease-ttl", 0, "How long a run lease blocks other runs (default 10m)")
	flags.Duration("timeout", defaultTimeout, "Overall timeout of a command")
	flags.Bool("insecure", false, "Skip TLS certificate verification")
	flags.String("log-format", string(logging.FormatText), "Log format: text or json")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.Float64("rate-limit", 10, "Maximum GitLab API requests per second")
	flags.Int("rate-burst", 20, "Maximum burst of GitLab API requests")

	bindFlag("gitlab.host", "host")
	bindFlag("gitlab.scheme", "scheme")
	bindFlag("gitlab.project", "project")
	bindFlag("gitlab.user_id", "user-id")
	bindFlag("git.remote", "remote")
	bindFlag("token", "token")
	bindFlag("token_ttl_days", "token-ttl-days")
	bindFlag("lease_ttl", "lease-ttl")
	bindFlag("timeout", "timeout")
	bindFlag("insecure_skip_tls", "insecure")
	bindFlag("log_format", "log-format")
	bindFlag("log_level", "log-level")
	bindFlag("rate_limit", "rate-limit")
	bindFlag("rate_burst", "rate-burst")
}

func bindFlag(key, flag string) {
	cobra.CheckErr(viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "tokenkeeper"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; a broken one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			initErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
	}

	opts, err := appOptions()
	if err != nil {
		initErr = err
		return
	}

	application, initErr = app.NewApp(context.Background(), opts...)
}

func appOptions() ([]app.Option, error) {
	colorMode, err := ui.ParseColorMode(colorFlag)
	if err != nil {
		return nil, err
	}

	format := logging.Format(strings.ToLower(viper.GetString("log_format")))
	if format != logging.FormatText && format != logging.FormatJSON {
		return nil, fmt.Errorf("invalid log format %q (use text or json)", format)
	}

	level, err := logging.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return nil, err
	}

	rateLimit := viper.GetFloat64("rate_limit")
	if rateLimit < 0 {
		return nil, fmt.Errorf("invalid rate limit %v (must not be negative)", rateLimit)
	}

	opts := []app.Option{
		app.WithColorMode(colorMode),
		app.WithLogFormat(format),
		app.WithLogLevel(level),
		app.WithRateLimit(rateLimit, viper.GetInt("rate_burst")),
		app.WithConfigPath(cfgFile),
	}
	if verbose {
		opts = append(opts, app.WithVerbose(true))
	}
	return opts, nil
}

// commandContext bounds a command by the configured timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout := viper.GetDuration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(cmd.Context(), timeout)
}

func printError(err error) {
	if application != nil {
		application.UI.Error("%v", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
