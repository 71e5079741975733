package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
	"audio-sessions/internal/app"
	"audio-sessions/internal/app/repository/migrate"
)

var (
	fromDriver string
	fromDSN    string
)

func init() {
	Cmd.Flags().StringVar(&fromDriver, "from-driver", "sqlite", "driver of the source store, sqlite or postgres")
	Cmd.Flags().StringVar(&fromDSN, "from-dsn", "", "source sqlite file or postgres connection string")

	Cmd.MarkFlagRequired("from-dsn")
}

// Cmd represents the migrate command
var Cmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy sessions from another store into the configured one",
	Long: `Copy sessions from another store into the configured one

- Ids are kept, sessions already present are skipped
- Safe to repeat after a partial failure`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := cmdutil.Open(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		src, closeSrc, err := app.OpenStore(ctx, fromDriver, fromDSN)
		if err != nil {
			return err
		}
		defer closeSrc()

		report, err := migrate.Copy(ctx, src, env.Orch.Store(), env.Logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "copied %d, skipped %d, failed %d\n", report.Copied, report.Skipped, report.Failed)
		return nil
	},
}
