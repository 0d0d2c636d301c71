/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/happythoughts/apiserver/internal/mq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect thought events on the message queue",
}

// eventsTailCmd logs every thought event until interrupted.
var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow the thought event channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		queue, err := mq.NewFromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is none; nothing to tail")
		}
		defer func() { _ = queue.Close() }()

		logger.Info("tailing thought events", zap.String("channel", cfg.MQ.Channel))
		err = queue.Subscribe(ctx, cfg.MQ.Channel, func(_ context.Context, msg mq.Message) error {
			event, err := mq.DecodeEvent(msg)
			if err != nil {
				// Redelivering a malformed message would loop forever.
				logger.Warn("skip malformed event", zap.String("message_id", msg.ID), zap.Error(err))
				return nil
			}
			logger.Info("thought event",
				zap.String("type", string(event.Type)),
				zap.String("thought_id", event.ThoughtID),
				zap.Int("hearts", event.Hearts),
				zap.Time("occurred_at", event.OccurredAt),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s hearts=%d\n", event.Type, event.ThoughtID, event.Hearts)
			return nil
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
