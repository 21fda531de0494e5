package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/polixdev/voicescribe/config"
	"github.com/polixdev/voicescribe/internal/domain"
	"github.com/polixdev/voicescribe/internal/infrastructure/logger"
)

var runCmd = &cobra.Command{
	Use:   "run <url>",
	Short: "Transcribe a single URL and wait for the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	jobSvc, _, closeServices, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer closeServices()

	// Ctrl-C cancels the job; the pipeline still cleans up and records
	// the cancelled outcome before we return.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	job, outcome, err := jobSvc.RunAndWait(ctx, args[0], func(event domain.ProgressEvent) {
		if event.Message != "" {
			fmt.Printf("[%s] %s\n", event.Stage, event.Message)
		}
	})
	if err != nil {
		return err
	}

	switch outcome.Status {
	case domain.StageDone:
		fmt.Printf("transcript: %s\n", outcome.OutputPath)
		return nil
	case domain.StageCancelled:
		logger.Info.Printf("job %s cancelled", job.ID)
		return fmt.Errorf("job cancelled")
	default:
		return fmt.Errorf("%s: %s", outcome.Kind, outcome.Message)
	}
}
