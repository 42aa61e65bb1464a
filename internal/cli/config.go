package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tokenkeeper/internal/commands"
)

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the tokenkeeper configuration file",
}

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file from the current flags",
	Long: `Write the effective settings (flags, environment and any existing file) to
the configuration file. The access token is never written.`,
	RunE: runConfigInit,
}

//nolint:gochecknoglobals // Cobra CLI pattern for subcommand
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings with the token masked",
	RunE:  runConfigShow,
}

//nolint:gochecknoinits // Cobra CLI pattern for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	path, err := commands.NewConfigInitCommand(a.ConfigRepo, a.Logger).Execute(cmd.Context(), commands.ConfigInitRequest{
		Settings:  settings(),
		LogFormat: viper.GetString("log_format"),
		Force:     force,
	})
	if err != nil {
		return err
	}

	a.UI.Success("Wrote %s", path)
	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}

	if used := viper.ConfigFileUsed(); used != "" {
		a.UI.Info("Config file: %s", used)
	} else {
		a.UI.Info("No config file loaded")
	}
	for _, entry := range commands.ShowConfig(settings(), viper.GetString("log_format"), viper.GetString("metrics.pushgateway")) {
		a.UI.Field(entry.Key, entry.Value)
	}
	return nil
}
