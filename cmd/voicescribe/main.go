// Package main provides the voicescribe CLI: one-shot transcription jobs
// and the HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "voicescribe",
	Short: "Audio transcription job runner",
	Long:  "voicescribe downloads the audio of a media URL, transcribes it with whisper.cpp, and appends the transcript to a per-title text file.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
