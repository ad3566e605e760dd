package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crptomonkeys/greenwiz/drops"
)

var dropRequest drops.Request

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop random assets on a recipient",
	Long: `Drop --quantity random assets from the sender's collection on a recipient.
Recipients with a linked wallet receive the assets directly, everyone else
gets a claim link. Sender tiers and daily limits apply as configured.`,
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
		if err := s.inventory.RefreshAll(cmd.Context()); err != nil {
			return err
		}

		res, err := s.distributor.Distribute(cmd.Context(), dropRequest)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %d assets from %s\n", okColor.Sprint("Dropped"), len(res.AssetIDs), res.Collection)
		if res.Wallet != "" {
			fmt.Fprintf(out, "Sent to %s in %s\n", res.Wallet, res.TransactionID)
		}
		if res.Link != nil {
			fmt.Fprintf(out, "Claim link %s\n", res.Link.AtomicHubURL())
		}
		fmt.Fprintf(out, "Drops by %s today: %d\n", dropRequest.Sender, res.UsedToday)
		if res.DeliveryPending {
			fmt.Fprintln(out, warnColor.Sprint("Recipient message failed, a retry is scheduled"))
		}
		return nil
	},
}

func init() {
	f := dropCmd.Flags()
	f.StringVar(&dropRequest.Sender, "sender", "", "id of the sender the drop is made on behalf of")
	f.StringVar(&dropRequest.Scope, "scope", "cli", "scope the sender's grant applies to")
	f.StringVar(&dropRequest.Recipient.ID, "to-id", "", "recipient id")
	f.StringVar(&dropRequest.Recipient.Name, "to-name", "", "recipient display name")
	f.StringVar(&dropRequest.Reason, "reason", "", "reason shown in the memo")
	f.IntVar(&dropRequest.Quantity, "quantity", 1, "number of assets")
	_ = dropCmd.MarkFlagRequired("sender")
	_ = dropCmd.MarkFlagRequired("to-id")

	rootCmd.AddCommand(dropCmd)
}
