/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/empdesk/apiserver/config"
	"github.com/empdesk/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

// eventsCmd represents the events command.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect employee change events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print events from the configured broker as JSON lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if cfg.MQ.Backend == "" {
			return errors.New("MQ_BACKEND is not set")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		defer broker.Close()

		out := cmd.OutOrStdout()
		err = broker.Subscribe(ctx, cfg.MQ.Channel, func(ctx context.Context, msg mq.Message) error {
			_, err := fmt.Fprintln(out, string(msg.Data))
			return err
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
