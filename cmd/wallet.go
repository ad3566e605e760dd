package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/types"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the wallets recipients linked for direct drops",
}

var walletLinkCmd = &cobra.Command{
	Use:   "link <recipient id> <wallet>",
	Short: "Link a wallet so drops are transferred instead of sent as claim links",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		wallet := strings.ToLower(strings.TrimSpace(args[1]))
		if !lib.NewAccountValidator(a.config.SpecialAccounts...).Valid(wallet) {
			return fmt.Errorf("%w: %q", types.ErrInvalidRecipient, args[1])
		}
		db, err := a.store()
		if err != nil {
			return err
		}
		if err := db.LinkWallet(cmd.Context(), args[0], wallet); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Linked %s to %s\n", args[0], wallet)
		return nil
	},
}

var walletShowCmd = &cobra.Command{
	Use:   "show <recipient id>",
	Short: "Show the wallet a recipient linked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		db, err := a.store()
		if err != nil {
			return err
		}
		wallet, ok, err := db.LinkedWallet(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s has no linked wallet\n", args[0])
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), wallet)
		return nil
	},
}

func init() {
	walletCmd.AddCommand(walletLinkCmd, walletShowCmd)
	rootCmd.AddCommand(walletCmd)
}
