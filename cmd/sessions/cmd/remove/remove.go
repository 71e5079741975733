package remove

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
)

var removeFile bool

func init() {
	Cmd.Flags().BoolVar(&removeFile, "remove-file", false, "also delete the audio file")
}

// Cmd represents the delete command
var Cmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a session record",
	Long: `Delete a session record

- The audio file stays on disk unless --remove-file is given`,
	Args: cobra.ExactArgs(1),
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
		if err := env.Orch.Store().Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted session %d\n", id)

		if removeFile && session.Path != "" {
			if err := os.Remove(session.Path); err != nil && !os.IsNotExist(err) {
				env.Logger.Warn("could not remove audio file", zap.String("path", session.Path), zap.Error(err))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", session.Path)
		}
		return nil
	},
}
