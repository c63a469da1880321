package main

import (
	"context"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rjboer/GoNetSDR/internal/logging"
	"github.com/rjboer/GoNetSDR/internal/monitor"
	"github.com/rjboer/GoNetSDR/internal/telemetry"
	"github.com/rjboer/GoNetSDR/internal/tui"
)

var monitorStart bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Terminal dashboard of connection and IQ stream health",
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
		if monitorStart {
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
		supCtx, cancelSup := context.WithCancel(ctx)
		defer cancelSup()
		go sup.Run(supCtx)

		program := tea.NewProgram(tui.New(hub, client), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil && ctx.Err() == nil {
			return err
		}
		logger.Info("monitor exited", logging.Field{Key: "iq_started", Value: client.IQStarted()})
		return nil
	},
}

func init() {
	monitorCmd.Flags().BoolVar(&monitorStart, "start", false, "start IQ streaming before showing the dashboard")
	rootCmd.AddCommand(monitorCmd)
}
