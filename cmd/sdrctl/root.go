package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/spf13/cobra"

	"github.com/rjboer/GoNetSDR/internal/config"
	"github.com/rjboer/GoNetSDR/internal/logging"
	"github.com/rjboer/GoNetSDR/internal/tunnel"
	"github.com/rjboer/GoNetSDR/netsdr"
)

var (
	// Persistent flags. Empty or zero means "keep the config value".
	cfgFile   string
	flagAddr  string
	flagPort  int
	flagLevel string
	flagFmt   string
	flagFile  string
	flagPlan  string

	// Shared state set during PersistentPreRunE.
	cfg    config.Config
	logger logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sdrctl",
	Short: "Control NetSDR-compatible receivers: discover, tune, stream, monitor",
	Long: `sdrctl drives a networked SDR receiver over its TCP control channel and
watches the UDP IQ stream. Configuration lives in a JSON file
(~/.gonetsdr/config.json by default), overridable per run through
NETSDR_* environment variables and these flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if flagAddr != "" {
			cfg.ControlAddr = flagAddr
		}
		if flagPort != 0 {
			cfg.DataPort = flagPort
		}
		if flagLevel != "" {
			cfg.LogLevel = flagLevel
		}
		if flagFmt != "" {
			cfg.LogFormat = flagFmt
		}
		if flagFile != "" {
			cfg.LogFile = flagFile
		}
		if flagPlan != "" {
			cfg.PlanPath = flagPlan
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		format, err := logging.ParseFormat(cfg.LogFormat)
		if err != nil {
			return err
		}
		var out io.Writer = os.Stderr
		if cfg.LogFile != "" {
			out = logging.FileWriter(cfg.LogFile)
		}
		logger = logging.New(level, format, out)
		logging.SetDefault(logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.gonetsdr/config.json)")
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", "", "receiver control address host:port")
	rootCmd.PersistentFlags().IntVar(&flagPort, "data-port", 0, "local UDP port for the IQ stream")
	rootCmd.PersistentFlags().StringVar(&flagLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "log-format", "", "log format: text, json")
	rootCmd.PersistentFlags().StringVar(&flagFile, "log-file", "", "log file path (rotated); stderr when empty")
	rootCmd.PersistentFlags().StringVar(&flagPlan, "plan", "", "channel plan YAML path")
}

// buildClient assembles the transports and client from the effective
// config. The returned cleanup closes the SSH tunnel, if any.
func buildClient() (*netsdr.Client, *netsdr.UDPData, func(), error) {
	control := netsdr.NewTCPControl(cfg.ControlAddr)
	cleanup := func() {}

	if cfg.SSH.Host != "" {
		dialer, err := tunnel.NewDialer(tunnel.Config{
			Host:     cfg.SSH.Host,
			Port:     cfg.SSH.Port,
			User:     cfg.SSH.User,
			Password: cfg.SSH.Password,
			KeyPath:  cfg.SSH.KeyPath,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		control.Dial = dialer.DialContext
		cleanup = func() { dialer.Close() }
	}

	data := &netsdr.UDPData{Port: cfg.DataPort}
	client := netsdr.NewClient(control, data, netsdr.Options{
		SampleRate:   cfg.SampleRate,
		ReplyTimeout: time.Duration(cfg.ReplyTimeout),
	})
	return client, data, cleanup, nil
}

// connectWithRetry dials the receiver with capped exponential backoff
// until ctx is canceled.
func connectWithRetry(ctx context.Context, client *netsdr.Client) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0 // keep trying until canceled

	attempt := func() error {
		if err := client.Connect(ctx); err != nil {
			logger.Warn("connect failed, retrying",
				logging.Field{Key: "addr", Value: cfg.ControlAddr},
				logging.Field{Key: "error", Value: err})
			return err
		}
		return nil
	}
	return backoff.Retry(attempt, backoff.WithContext(policy, ctx))
}
