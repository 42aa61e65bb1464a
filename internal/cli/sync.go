package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tokenkeeper/internal/app"
	"tokenkeeper/internal/commands"
	"tokenkeeper/internal/domain"
	"tokenkeeper/internal/metrics"
	"tokenkeeper/internal/services/environment"
)

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Create or rotate the publish token and store it in CI_PUBLISH_TOKEN",
	Long: `Resolve the project, check that the acting token has the api scope and
Maintainer access, then inspect the project and perform exactly one action:

  CREATE          no token exists: create one and store its value
  ROTATE          the token has expired: rotate it and store the new value
  ROTATE_AND_SET  the token is valid but the variable is missing: rotate and store
  SKIP            the token is valid and the variable exists: change nothing

A run lease (the CI_PUBLISH_TOKEN_LEASE variable) keeps concurrent runs on the
same project from interleaving.`,
	RunE: runSync,
}

//nolint:gochecknoinits // Cobra CLI pattern for command registration
func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Bool("dry-run", false, "Report the decided action without writing anything")
	syncCmd.Flags().Bool("no-lease", false, "Do not take the run lease")
	syncCmd.Flags().String("pushgateway", "", "Prometheus Pushgateway URL to push run metrics to")
	syncCmd.Flags().String("metrics-job", metrics.DefaultJob, "Pushgateway job name")

	cobra.CheckErr(viper.BindPFlag("metrics.pushgateway", syncCmd.Flags().Lookup("pushgateway")))
	cobra.CheckErr(viper.BindPFlag("metrics.job", syncCmd.Flags().Lookup("metrics-job")))
}

func newResolver(a *app.App, s domain.Settings) *environment.Resolver {
	sources := environment.DefaultSources(s.Token, a.Getenv, a.CredentialStore)
	return environment.NewResolver(a.RemoteInspector, sources, a.Getenv, a.Logger)
}

func runSync(cmd *cobra.Command, _ []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noLease, _ := cmd.Flags().GetBool("no-lease")
	s := settings()

	syncCommand := commands.NewSyncCommand(
		newResolver(a, s),
		a.GitLabServiceFactory,
		a.Metrics,
		a.Logger,
	)

	ctx, cancel := commandContext(cmd)
	defer cancel()
	result, err := syncCommand.Execute(ctx, commands.SyncRequest{
		Settings:    s,
		DryRun:      dryRun,
		NoLease:     noLease,
		Pushgateway: viper.GetString("metrics.pushgateway"),
		MetricsJob:  viper.GetString("metrics.job"),
	})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printSyncResult(a, result)
	return nil
}

func printSyncResult(a *app.App, result *commands.SyncResult) {
	out := a.UI
	switch {
	case result.DryRun:
		out.Info("Dry run: would perform %s on %s", result.Plan.Action, result.Environment.ProjectPath)
	case result.Plan.Action == domain.ActionSkip:
		out.Success("Token is valid and %s is set, nothing to do", domain.VariableKey)
	default:
		out.Success("%s completed for %s", result.Plan.Action, result.Environment.ProjectPath)
	}

	printPlan(a, result.Plan)
	if result.Outcome.TokenWrite != domain.TokenWriteNone {
		out.Field("token id", result.Outcome.TokenID)
		out.Field("expires at", result.Outcome.ExpiresAt)
	}
}

func printPlan(a *app.App, plan domain.Plan) {
	out := a.UI
	out.Field("action", plan.Action)
	if plan.Token.Present {
		out.Field("current token", fmt.Sprintf("#%d, expires %s", plan.Token.ID, orNever(plan.Token.ExpiresAt)))
	} else {
		out.Field("current token", "none")
	}
	out.Field("variable present", plan.Variable.Present)
	if plan.TokenWrite != domain.TokenWriteNone {
		out.Field("token write", plan.TokenWrite)
	}
	if plan.VariableWrite != domain.VariableWriteNone {
		out.Field("variable write", plan.VariableWrite)
	}
}

func orNever(date string) string {
	if date == "" {
		return "never"
	}
	return date
}
