package edit

import (
	"fmt"

	"github.com/spf13/cobra"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
	"audio-sessions/internal/app/model"
)

var (
	title string
	notes string
)

func init() {
	Cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	Cmd.Flags().StringVarP(&notes, "notes", "n", "", "new notes, an empty value clears them")
}

// Cmd represents the edit command
var Cmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit the title or notes of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cmdutil.ParseID(args[0])
		if err != nil {
			return err
		}

		var patch model.SessionPatch
		if cmd.Flags().Changed("title") {
			patch.Title = model.Ptr(title)
		}
		if cmd.Flags().Changed("notes") {
			patch.Notes = model.Ptr(notes)
		}
		if patch.IsEmpty() {
			return fmt.Errorf("nothing to change: pass --title or --notes")
		}

		ctx := cmd.Context()
		env, err := cmdutil.Open(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		session, err := env.Orch.Store().Update(ctx, id, patch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated session %d: %s\n", session.ID, session.Title)
		return nil
	},
}
