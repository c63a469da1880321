package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rjboer/GoNetSDR/internal/logging"
	"github.com/rjboer/GoNetSDR/internal/monitor"
	"github.com/rjboer/GoNetSDR/internal/telemetry"
)

var serveStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stream statistics over HTTP until interrupted",
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
		if serveStart {
			if err := client.StartIQ(ctx); err != nil {
				return err
			}
		}

		hub := telemetry.NewStatsHub(0)
		sup := &monitor.Supervisor{
			Counters: data,
			Client:   client,
			Hub:      hub,
			Logger:   logger,
		}
		go sup.Run(ctx)

		logger.Info("serving stream statistics",
			logging.Field{Key: "addr", Value: cfg.TelemetryAddr})
		telemetry.NewWebServer(cfg.TelemetryAddr, hub, logger).Start(ctx)

		if serveStart && client.IQStarted() {
			stopCtx, cancel := signalFreeContext()
			defer cancel()
			if err := client.StopIQ(stopCtx); err != nil {
				logger.Warn("stop iq on shutdown", logging.Field{Key: "error", Value: err})
			}
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveStart, "start", false, "start IQ streaming before serving")
	rootCmd.AddCommand(serveCmd)
}
