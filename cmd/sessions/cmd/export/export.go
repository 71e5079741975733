package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
	"audio-sessions/internal/app/converter/export"
)

var (
	outputFilePath string
	ids            []int64
	query          string
)

func init() {
	Cmd.Flags().StringVarP(&outputFilePath, "outputFilePath", "o", "", "output file, .csv or .xlsx")
	Cmd.Flags().Int64SliceVar(&ids, "ids", nil, "only these session ids")
	Cmd.Flags().StringVarP(&query, "query", "q", "", "only sessions matching this query")

	Cmd.MarkFlagRequired("outputFilePath")
}

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export sessions to csv or excel",
	Long: `Export sessions to csv or excel

- The format follows the output file extension
- CSV carries the session table columns, excel adds transcript and transformed text`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ext := strings.ToLower(filepath.Ext(outputFilePath))
		if ext != ".csv" && ext != ".xlsx" {
			return fmt.Errorf("unsupported output extension %q, use .csv or .xlsx", ext)
		}

		ctx := cmd.Context()
		env, err := cmdutil.Open(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sessions, err := env.Orch.Store().Find(ctx, query)
		if err != nil {
			return err
		}

		if ext == ".xlsx" {
			err = export.ToExcel(sessions, ids, outputFilePath)
		} else {
			err = export.ToCSV(sessions, ids, outputFilePath)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "export finished, exported file path: %v\n", outputFilePath)
		return nil
	},
}
