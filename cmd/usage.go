package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/crptomonkeys/greenwiz/drops"
)

var usageDay string

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show drops per sender for a UTC day",
	RunE: func(cmd *cobra.Command, _ []string) error {
		day := usageDay
		if day == "" {
			day = drops.DayKey(time.Now())
		}
		if _, err := time.Parse("2006-01-02", day); err != nil {
			return fmt.Errorf("invalid day %q, want YYYY-MM-DD", day)
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		ledger, err := a.usageLedger()
		if err != nil {
			return err
		}
		counts, err := ledger.Day(cmd.Context(), day)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(counts) == 0 {
			fmt.Fprintf(out, "No drops on %s\n", day)
			return nil
		}
		senders := make([]string, 0, len(counts))
		for s := range counts {
			senders = append(senders, s)
		}
		sort.Strings(senders)

		w := newTable(out, "SENDER", "DROPS")
		for _, s := range senders {
			fmt.Fprintf(w, "%s\t%d\n", s, counts[s])
		}
		return w.Flush()
	},
}

func init() {
	usageCmd.Flags().StringVar(&usageDay, "day", "", "UTC day as YYYY-MM-DD (defaults to today)")
	rootCmd.AddCommand(usageCmd)
}
