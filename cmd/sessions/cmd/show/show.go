package show

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
)

var asJSON bool

func init() {
	Cmd.Flags().BoolVar(&asJSON, "json", false, "print the session as JSON")
}

// Cmd represents the show command
var Cmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session with its transcript and transformed text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cmdutil.ParseID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := cmdutil.Open(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		session, err := env.Orch.Store().Get(ctx, id)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(session)
		}
		cmdutil.RenderSession(cmd.OutOrStdout(), *session)
		return nil
	},
}
