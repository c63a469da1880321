package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rjboer/GoNetSDR/internal/logging"
	"github.com/rjboer/GoNetSDR/internal/monitor"
	"github.com/rjboer/GoNetSDR/internal/telemetry"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start IQ streaming and log stream statistics until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, data, cleanup, err := buildClient()
		if err != nil {
			return err
		}
		defer cleanup()
		defer client.Disconnect()

		if err := connectWithRetry(ctx, client); err != nil {
			return err
		}
		if err := client.StartIQ(ctx); err != nil {
			return err
		}
		logger.Info("iq streaming started",
			logging.Field{Key: "addr", Value: cfg.ControlAddr},
			logging.Field{Key: "data_port", Value: cfg.DataPort})

		hub := telemetry.NewStatsHub(0)
		reporter := telemetry.NewLogReporter(logger)
		ch, cancelSub := hub.Subscribe()
		defer cancelSub()
		go func() {
			for sample := range ch {
				reporter.Report(sample)
			}
		}()

		sup := &monitor.Supervisor{
			Counters: data,
			Client:   client,
			Hub:      hub,
			Interval: 5 * time.Second,
			Logger:   logger,
		}
		sup.Run(ctx)

		// The signal context is spent; stop with a fresh bound.
		stopCtx, cancel := signalFreeContext()
		defer cancel()
		if err := client.StopIQ(stopCtx); err != nil {
			logger.Warn("stop iq on shutdown", logging.Field{Key: "error", Value: err})
		}
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Tell the receiver to stop IQ streaming",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, cleanup, err := buildClient()
		if err != nil {
			return err
		}
		defer cleanup()
		defer client.Disconnect()

		if err := client.Connect(cmd.Context()); err != nil {
			return err
		}
		if err := client.StopIQ(cmd.Context()); err != nil {
			return err
		}
		logger.Info("iq streaming stopped")
		return nil
	},
}

// signalFreeContext bounds shutdown work after the signal context is
// already canceled.
func signalFreeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
}
