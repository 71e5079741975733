package prompts

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
	apperrors "audio-sessions/internal/app/errors"
	"audio-sessions/internal/app/model"
)

var nameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

// Cmd represents the prompts command
var Cmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage saved transformation prompts",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and saved prompts",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := cmdutil.LoadSettings()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, p := range model.BuiltinPrompts() {
			fmt.Fprintf(out, "%s  %s\n", nameStyle.Render(p.Key()), p.Instruction())
		}
		for _, p := range settings.Prompts {
			fmt.Fprintf(out, "%s  %s\n", nameStyle.Render(p.Name), p.Text)
		}
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <name> <text>",
	Short: "Save a custom prompt under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := cmdutil.LoadSettings()
		if err != nil {
			return err
		}
		if err := settings.AddPrompt(args[0], args[1]); err != nil {
			return err
		}
		if err := settings.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved prompt %q\n", args[0])
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved prompt",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := cmdutil.LoadSettings()
		if err != nil {
			return err
		}
		if !settings.RemovePrompt(args[0]) {
			return apperrors.ErrInvalidPrompt.Withf("no saved prompt named %q", args[0])
		}
		if err := settings.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed prompt %q\n", args[0])
		return nil
	},
}

func init() {
	Cmd.AddCommand(listCmd, addCmd, removeCmd)
}
