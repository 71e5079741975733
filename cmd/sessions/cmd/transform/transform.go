package transform

import (
	"fmt"

	"github.com/spf13/cobra"

	"audio-sessions/cmd/sessions/cmd/cmdutil"
	"audio-sessions/internal/app/pipeline"
)

var (
	prompt string
	apiKey string
)

func init() {
	Cmd.Flags().StringVarP(&prompt, "prompt", "p", "summarize",
		"summarize, translate, structure, custom:<text> or the name of a saved prompt")
	Cmd.Flags().StringVar(&apiKey, "api-key", "", "API key of the transform provider, defaults to the environment")
}

// Cmd represents the transform command
var Cmd = &cobra.Command{
	Use:   "transform <id>",
	Short: "Transform a session's transcript with a prompt",
	Long: `Transform a session's transcript with a prompt

- Built-in prompts: summarize, translate, structure
- custom:<text> uses the text as instruction
- Saved prompts (see 'sessions prompts') are used by name
- The session must be transcribed first`,
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

		p, err := env.Settings.ResolvePrompt(prompt)
		if err != nil {
			return err
		}

		var res *pipeline.TransformationResult
		err = cmdutil.Spinner(fmt.Sprintf("transforming session %d (%s)", id, p.Key()), func() error {
			r := <-env.Orch.TransformAsync(ctx, id, p, env.TransformKey(apiKey))
			res = r.Value
			return r.Err
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		return nil
	},
}
