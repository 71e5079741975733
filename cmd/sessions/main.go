package main

import (
	"fmt"
	"os"

	"audio-sessions/cmd/sessions/cmd"
	"audio-sessions/internal/config"
)

func main() {
	// Missing keys only disable the AI stages, so this is a warning
	if _, err := config.InitializeConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Configuration Warning: %v\n", err)
		fmt.Fprintf(os.Stderr, "💡 To enable transcription, copy .env.example to .env and add your API keys\n")
	}

	cmd.Execute()
}
