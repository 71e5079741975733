package save

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
	"audio-sessions/internal/app/audio"
	"audio-sessions/internal/app/model"
)

var (
	title      string
	notes      string
	recordedAt string
)

func init() {
	Cmd.Flags().StringVarP(&title, "title", "t", "", "session title")
	Cmd.Flags().StringVarP(&notes, "notes", "n", "", "session notes")
	Cmd.Flags().StringVar(&recordedAt, "recorded-at", "", "recording time in RFC3339, defaults to now")
}

// Cmd represents the save command
var Cmd = &cobra.Command{
	Use:   "save <audio-file>",
	Short: "Save an existing audio file as a new session",
	Long: `Save an existing audio file as a new session

- Duration, sample rate and channels are read from the file
- WAV is decoded directly, other formats need ffprobe on PATH
- The file is referenced by path, not copied`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		meta := model.Metadata{Title: title, Notes: notes}
		if recordedAt != "" {
			t, err := time.Parse(time.RFC3339, recordedAt)
			if err != nil {
				return fmt.Errorf("invalid --recorded-at: %w", err)
			}
			meta.RecordedAt = t
		}

		artifact, err := audio.Probe(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := cmdutil.Open(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		session, err := env.Orch.SaveRecording(ctx, *artifact, meta)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved session %d (%.1fs, %d Hz, %d ch)\n",
			session.ID, session.DurationSec, session.SampleRate, session.Channels)

		if env.Expanded.AutoTranscription {
			if _, err := env.Transcribe(ctx, session.ID, env.TranscriptionKey("")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "transcribed session %d\n", session.ID)
		}
		return nil
	},
}
