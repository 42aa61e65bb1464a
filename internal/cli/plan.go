package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tokenkeeper/internal/commands"
)

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the action sync would take without changing anything",
	Long: `Resolve the project, validate permissions and inspect the token and
variable, then print the decided action. No lease is taken and nothing is written.`,
	RunE: runPlan,
}

//nolint:gochecknoinits // Cobra CLI pattern for command registration
func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}

	s := settings()
	planCommand := commands.NewPlanCommand(newResolver(a, s), a.GitLabServiceFactory, a.Logger)

	ctx, cancel := commandContext(cmd)
	defer cancel()
	result, err := planCommand.Execute(ctx, commands.PlanRequest{Settings: s})
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}

	a.UI.Info("Plan for %s on %s", result.Environment.ProjectPath, result.Environment.Host)
	a.UI.Field("credential source", result.Environment.CredentialSource)
	a.UI.Field("project source", result.Environment.ProjectSource)
	printPlan(a, result.Plan)
	return nil
}
