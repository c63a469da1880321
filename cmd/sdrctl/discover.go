package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rjboer/GoNetSDR/internal/discover"
)

var (
	discoverWait    time.Duration
	discoverRetries uint64
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Browse the LAN for advertised receivers",
	RunE: func(cmd *cobra.Command, args []string) error {
		browser := &discover.Browser{Wait: discoverWait, MaxRetries: discoverRetries}
		receivers, err := browser.Discover(cmd.Context())
		if err != nil {
			return err
		}
		if len(receivers) == 0 {
			fmt.Println("no receivers found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "INSTANCE\tADDRESS\tHOSTNAME\tTXT")
		for _, r := range receivers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				r.Instance, r.ControlAddr(), r.Hostname, strings.Join(r.TXT, " "))
		}
		return w.Flush()
	},
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverWait, "wait", 3*time.Second, "how long one browse round listens")
	discoverCmd.Flags().Uint64Var(&discoverRetries, "retries", 3, "extra rounds after an empty one")
	rootCmd.AddCommand(discoverCmd)
}
