/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/empdesk/apiserver/config"
	"github.com/empdesk/apiserver/internal/logging"
	"github.com/empdesk/apiserver/internal/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the employee records API server",
	Long: `Starts the employee records API server. Usage:

	empdesk server [--port 5000] [--upload-dir uploads]
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()
		applyServerFlags(cmd, &cfg)
		logger := logging.New(os.Stderr, cfg.Log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(ctx, cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
			os.Exit(1)
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				fmt.Fprintf(os.Stderr, "server error: %v\n", err)
				_ = srv.Shutdown(context.Background())
				os.Exit(1)
			}
		case <-ctx.Done():
			logger.Info("shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
			os.Exit(1)
		}
	},
}

func applyServerFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.ServerPort, _ = flags.GetInt("port")
		if os.Getenv("PUBLIC_BASE_URL") == "" {
			cfg.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.ServerPort)
		}
	}
	if flags.Changed("upload-dir") {
		cfg.Upload.Dir, _ = flags.GetString("upload-dir")
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().Int("port", 5000, "port to listen on (overrides SERVER_PORT)")
	serverCmd.Flags().String("upload-dir", "uploads", "directory for uploaded images when STORAGE_BACKEND=local (overrides UPLOAD_DIR)")
}
