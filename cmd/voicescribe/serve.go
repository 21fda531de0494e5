package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/polixdev/voicescribe/config"
	httpadapter "github.com/polixdev/voicescribe/internal/adapter/http"
	"github.com/polixdev/voicescribe/internal/infrastructure/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	jobSvc, eventBus, closeServices, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer closeServices()

	server := httpadapter.NewServer(jobSvc, eventBus, cfg.AuthTokenHash)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     server,
		ReadTimeout: 30 * time.Second,
		// SSE streams stay open for the lifetime of a job, so the write
		// timeout must outlast the slowest pipeline.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info.Printf("received %s, shutting down", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error.Printf("http shutdown error: %v", err)
		}
	}()

	logger.Info.Printf("server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
