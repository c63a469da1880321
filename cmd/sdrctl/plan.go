package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rjboer/GoNetSDR/internal/chanplan"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "List the channel plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.PlanPath == "" {
			return fmt.Errorf("no channel plan configured; set --plan or plan_path in the config")
		}
		plan, err := chanplan.Load(cfg.PlanPath)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tFREQUENCY (Hz)\tCHANNEL\tNOTES")
		for _, e := range plan.Entries {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", e.Name, e.FrequencyHz, e.Channel, e.Notes)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
