package archive

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
	"audio-sessions/internal/app"
)

var expiry time.Duration

func init() {
	Cmd.Flags().DurationVar(&expiry, "url-expiry", 24*time.Hour, "lifetime of the presigned download url")
}

// Cmd represents the archive command
var Cmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Upload a copy of a session's audio to object storage",
	Long: `Upload a copy of a session's audio to object storage

- Needs archive.endpoint in the settings (MinIO or any S3 compatible service)
- The local file is kept`,
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

		archiver, err := app.InitializeArchiver(ctx, env.Expanded)
		if err != nil {
			return err
		}

		session, err := env.Orch.Store().Get(ctx, id)
		if err != nil {
			return err
		}

		res, err := archiver.Archive(ctx, session)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "archived session %d as %s (%d bytes)\n", id, res.Key, res.Size)

		if url, err := archiver.PresignedURL(ctx, res.Key, expiry); err == nil {
			fmt.Fprintln(cmd.OutOrStdout(), url)
		}
		return nil
	},
}
