package list

import (
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
	"audio-sessions/internal/app/model"
)

var pendingOnly bool

func init() {
	Cmd.Flags().BoolVar(&pendingOnly, "pending", false, "only sessions without a transcript")
}

// Cmd represents the list command
var Cmd = &cobra.Command{
	Use:     "list [query]",
	Aliases: []string{"ls"},
	Short:   "List sessions, newest first",
	Long: `List sessions, newest first

- The optional query matches title and notes, case-insensitive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := cmdutil.Open(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sessions, err := env.Orch.Store().Find(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if pendingOnly {
			sessions = lo.Reject(sessions, func(s model.Session, _ int) bool {
				return s.HasTranscript()
			})
		}

		cmdutil.RenderTable(cmd.OutOrStdout(), sessions)
		return nil
	},
}
