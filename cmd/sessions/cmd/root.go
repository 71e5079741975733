package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"audio-sessions/cmd/sessions/cmd/archive"
	"audio-sessions/cmd/sessions/cmd/cmdutil"
	"audio-sessions/cmd/sessions/cmd/config"
	"audio-sessions/cmd/sessions/cmd/edit"
	"audio-sessions/cmd/sessions/cmd/export"
	"audio-sessions/cmd/sessions/cmd/list"
	"audio-sessions/cmd/sessions/cmd/migrate"
	"audio-sessions/cmd/sessions/cmd/prompts"
	"audio-sessions/cmd/sessions/cmd/record"
	"audio-sessions/cmd/sessions/cmd/remove"
	"audio-sessions/cmd/sessions/cmd/save"
	"audio-sessions/cmd/sessions/cmd/serve"
	"audio-sessions/cmd/sessions/cmd/show"
	"audio-sessions/cmd/sessions/cmd/transcribe"
	"audio-sessions/cmd/sessions/cmd/transform"
	"audio-sessions/cmd/sessions/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Record audio sessions, transcribe them and transform the transcripts with AI",
	Long: `Record audio sessions, transcribe them and transform the transcripts with AI.
- Record or import a WAV file as a session
- Transcribe a session with the OpenAI speech-to-text API
- Summarize, translate or restructure the transcript with a chat model
- Sessions are saved to sqlite or postgres, audio stays on disk.`,
	TraverseChildren: true,
	SilenceErrors:    true,
	SilenceUsage:     true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", cmdutil.Describe(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(record.Cmd)
	rootCmd.AddCommand(save.Cmd)
	rootCmd.AddCommand(list.Cmd)
	rootCmd.AddCommand(show.Cmd)
	rootCmd.AddCommand(edit.Cmd)
	rootCmd.AddCommand(remove.Cmd)
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(transform.Cmd)
	rootCmd.AddCommand(export.Cmd)
	rootCmd.AddCommand(prompts.Cmd)
	rootCmd.AddCommand(archive.Cmd)
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(migrate.Cmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&cmdutil.Verbose, "verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&cmdutil.ConfigPath, "config", "", "settings file (default is $AUDIO_SESSIONS_CONFIG or ~/.config/audio-sessions/settings.yaml)")
}
