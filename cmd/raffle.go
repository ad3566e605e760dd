package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crptomonkeys/greenwiz/modes/raffle"
	"github.com/crptomonkeys/greenwiz/types"
)

var raffleJSON bool

var raffleCmd = &cobra.Command{
	Use:   "raffle",
	Short: "Mining raffle for the configured lands",
}

var raffleRunOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Draw the raffle for the latest closed window if it has not run yet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		s, err := a.build()
		if err != nil {
			return err
		}
		runner, err := a.raffleRunner(s)
		if err != nil {
			return err
		}
		if runner == nil {
			return errors.Join(types.ErrConfigurationUnavailable, errors.New("raffle is not enabled"))
		}
		if err := s.inventory.RefreshAll(cmd.Context()); err != nil {
			return err
		}

		outcome, err := runner.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		if raffleJSON {
			return printJSON(cmd.OutOrStdout(), outcome)
		}
		printOutcome(cmd, outcome)
		return nil
	},
}

var raffleWindowCmd = &cobra.Command{
	Use:   "window",
	Short: "Show the latest closed window and the next scheduled run",
	Run: func(cmd *cobra.Command, _ []string) {
		now := time.Now()
		fmt.Fprintf(cmd.OutOrStdout(), "Latest window: %s\nNext run: %s\n",
			raffle.LatestWindow(now), raffle.NextRun(now).UTC().Format(time.RFC3339))
	},
}

func printOutcome(cmd *cobra.Command, o *raffle.Outcome) {
	out := cmd.OutOrStdout()
	switch {
	case o.Skipped:
		fmt.Fprintf(out, "%s %s was already drawn\n", warnColor.Sprint("Skipped:"), o.Window)
		return
	case o.Winner != "":
		fmt.Fprintf(out, "%s %s won asset %d in %s\n", okColor.Sprint("Winner:"), o.Winner, o.AssetID, o.TransactionID)
	default:
		fmt.Fprintf(out, "%s %s\n", warnColor.Sprint("No winner for"), o.Window)
	}
	fmt.Fprintf(out, "Mines: %d, unique miners: %d, eligible: %d\n", o.Mines, o.Unique, o.Eligible)
}

func init() {
	raffleRunOnceCmd.Flags().BoolVar(&raffleJSON, "json", false, "print the outcome as JSON")
	raffleCmd.AddCommand(raffleRunOnceCmd, raffleWindowCmd)
	rootCmd.AddCommand(raffleCmd)
}
