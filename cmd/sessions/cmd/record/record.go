package record

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
	"audio-sessions/internal/app/audio"
	"audio-sessions/internal/app/model"
)

var (
	inputPath  string
	duration   time.Duration
	title      string
	notes      string
	sampleRate int
	channels   int
	transcribe bool
	realtime   bool
)

func init() {
	Cmd.Flags().StringVarP(&inputPath, "input", "i", "", "WAV file used as the input device")
	Cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop after this long, 0 records until end of input or Ctrl+C")
	Cmd.Flags().StringVarP(&title, "title", "t", "", "session title")
	Cmd.Flags().StringVarP(&notes, "notes", "n", "", "session notes")
	Cmd.Flags().IntVar(&sampleRate, "sample-rate", audio.DefaultSampleRate, "sample rate for devices without a native format")
	Cmd.Flags().IntVar(&channels, "channels", audio.DefaultChannels, "channel count for devices without a native format")
	Cmd.Flags().BoolVar(&transcribe, "transcribe", false, "transcribe right after saving")
	Cmd.Flags().BoolVar(&realtime, "realtime", true, "deliver input at its natural rate")

	Cmd.MarkFlagRequired("input")
}

// Cmd represents the record command
var Cmd = &cobra.Command{
	Use:   "record",
	Short: "Record a new session from an input device",
	Long: `Record a new session from an input device

- Captures into a WAV file under the recordings directory
- Stops at end of input, after --duration, or on Ctrl+C
- Saves the session, and transcribes it when --transcribe or auto_transcription is set`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := cmdutil.Open(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		ctrl := audio.NewController(audio.Config{
			Dir:        env.Expanded.RecordingsDir,
			SampleRate: sampleRate,
			Channels:   channels,
		}, env.Logger)

		dev := audio.NewFileDevice(inputPath, realtime)
		if err := ctrl.Start(ctx, dev); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "● recording from %s, press Ctrl+C to stop\n", dev.Name())

		waitForStop(ctx, ctrl)

		artifact, err := ctrl.Stop()
		if err != nil && artifact == nil {
			return err
		}
		if err != nil {
			// keep what was captured before the device failed
			env.Logger.Warn("device failed during recording", zap.Error(err))
		}

		session, err := env.Orch.SaveRecording(ctx, *artifact, model.Metadata{Title: title, Notes: notes})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved session %d (%.1fs) to %s\n", session.ID, session.DurationSec, session.Path)

		if !transcribe && !env.Expanded.AutoTranscription {
			return nil
		}
		res, err := env.Transcribe(ctx, session.ID, env.TranscriptionKey(""))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		return nil
	},
}

// waitForStop blocks until the input ends, the duration passes, or the user interrupts
func waitForStop(ctx context.Context, ctrl *audio.Controller) {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-sigCtx.Done():
	case <-deadline:
	case <-ctrl.Done():
	}
}
