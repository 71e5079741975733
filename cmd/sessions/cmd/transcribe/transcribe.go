package transcribe

import (
	"fmt"

	"github.com/spf13/cobra"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
	"audio-sessions/internal/app/converter"
	apperrors "audio-sessions/internal/app/errors"
)

var (
	pending  bool
	query    string
	limit    int
	parallel int
	apiKey   string
)

func init() {
	Cmd.Flags().BoolVar(&pending, "pending", false, "transcribe every session without a transcript")
	Cmd.Flags().StringVarP(&query, "query", "q", "", "with --pending, only sessions matching this query")
	Cmd.Flags().IntVarP(&limit, "limit", "n", 0, "with --pending, at most this many sessions, 0 for all")
	Cmd.Flags().IntVarP(&parallel, "parallel", "p", 2, "with --pending, concurrent transcriptions")
	Cmd.Flags().StringVar(&apiKey, "api-key", "", "OpenAI API key, defaults to OPENAI_API_KEY")
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe [id]",
	Short: "Transcribe a session's audio",
	Long: `Transcribe a session's audio

- Calls the speech-to-text API once, failures are not retried
- Identical audio is served from the transcript cache
- With --pending, transcribes every session without a transcript`,
	Args: func(cmd *cobra.Command, args []string) error {
		if pending {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := cmdutil.Open(ctx)
		if err != nil {
			return err
		}
		defer env.Close()
		key := env.TranscriptionKey(apiKey)

		if pending {
			conv := converter.NewConverter(env.Orch, env.Logger, converter.ProgressConfig{
				Enabled: converter.ShouldShowProgress(false),
			})
			defer conv.Close()

			outcomes, err := conv.TranscribePending(ctx, query, key, limit, parallel)
			if err != nil {
				return err
			}
			failed := 0
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "session %d: %s\n", o.SessionID, cmdutil.Describe(o.Err))
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "transcribed %d of %d session(s)\n", len(outcomes)-failed, len(outcomes))
			if failed > 0 {
				return apperrors.ErrTranscriptionFailed.Withf("%d session(s) failed", failed)
			}
			return nil
		}

		id, err := cmdutil.ParseID(args[0])
		if err != nil {
			return err
		}
		res, err := env.Transcribe(ctx, id, key)
		if err != nil {
			return err
		}
		if res.Cached {
			fmt.Fprintln(cmd.ErrOrStderr(), "(from transcript cache)")
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		return nil
	},
}
