package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rjboer/GoNetSDR/internal/chanplan"
	"github.com/rjboer/GoNetSDR/internal/logging"
)

var (
	tuneFreq    int64
	tuneName    string
	tuneChannel int
)

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Set the receiver frequency, by raw Hz or channel-plan name",
	RunE: func(cmd *cobra.Command, args []string) error {
		hz := tuneFreq
		channel := tuneChannel
		if tuneName != "" {
			if cfg.PlanPath == "" {
				return fmt.Errorf("--name needs a channel plan; set --plan or plan_path in the config")
			}
			plan, err := chanplan.Load(cfg.PlanPath)
			if err != nil {
				return err
			}
			entry, ok := plan.Lookup(tuneName)
			if !ok {
				return fmt.Errorf("channel %q not in plan %s", tuneName, cfg.PlanPath)
			}
			hz = entry.FrequencyHz
			if !cmd.Flags().Changed("channel") {
				channel = entry.Channel
			}
		}
		if hz <= 0 {
			return fmt.Errorf("no frequency given; use --freq or --name")
		}

		client, _, cleanup, err := buildClient()
		if err != nil {
			return err
		}
		defer cleanup()
		defer client.Disconnect()

		if err := client.Connect(cmd.Context()); err != nil {
			return err
		}
		if err := client.ChangeFrequency(cmd.Context(), hz, channel); err != nil {
			return err
		}
		logger.Info("tuned",
			logging.Field{Key: "frequency_hz", Value: hz},
			logging.Field{Key: "channel", Value: channel})
		return nil
	},
}

func init() {
	tuneCmd.Flags().Int64Var(&tuneFreq, "freq", 0, "frequency in Hz")
	tuneCmd.Flags().StringVar(&tuneName, "name", "", "channel-plan entry name")
	tuneCmd.Flags().IntVar(&tuneChannel, "channel", 0, "receiver channel index")
	rootCmd.AddCommand(tuneCmd)
}
