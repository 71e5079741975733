package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
	envconfig "audio-sessions/internal/config"
)

// Cmd represents the config command
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings file and the available API keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := cmdutil.LoadSettings()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(settings)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n%s", settings.Path(), data)

		keys, err := envconfig.GetAPIKeys()
		if err != nil {
			fmt.Fprintf(out, "# API keys: %v\n", err)
			return nil
		}
		fmt.Fprintf(out, "# API keys: %v\n", keys.Available())
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting, e.g. transform.provider gemini",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := cmdutil.LoadSettings()
		if err != nil {
			return err
		}
		if err := settings.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := settings.Expanded().Validate(); err != nil {
			return err
		}
		if err := settings.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	Cmd.AddCommand(showCmd, setCmd)
}
