package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crptomonkeys/greenwiz/broadcast"
)

var (
	fundsCollection string
	fundsSender     string
	sendMemo        string
	mintSchema      string
	mintTemplate    int32
	mintAmount      int
)

func printPush(cmd *cobra.Command, what string, res *broadcast.PushResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s in %s\n", okColor.Sprint(what), res.Processed.Receipt.Status, res.TransactionID)
}

var sendWaxCmd = &cobra.Command{
	Use:   "send-wax <to> <amount>",
	Short: "Transfer WAX from a collection account",
	Example: `  greenwiz send-wax alice.wam 1.5
  greenwiz send-wax alice.wam "2.00000000 WAX" --collection crptomonkeys`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		s, err := a.build()
		if err != nil {
			return err
		}
		collection, err := a.collectionName(fundsCollection)
		if err != nil {
			return err
		}
		res, err := s.distributor.SendFunds(cmd.Context(), collection, args[0], args[1], fundsSender)
		if err != nil {
			return err
		}
		printPush(cmd, "Transfer", res)
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <to> <asset ids...>",
	Short: "Transfer specific assets from a collection account",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args[1:])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		s, err := a.build()
		if err != nil {
			return err
		}
		collection, err := a.collectionName(fundsCollection)
		if err != nil {
			return err
		}
		res, err := s.distributor.SendAssets(cmd.Context(), collection, args[0], ids, sendMemo, fundsSender)
		if err != nil {
			return err
		}
		printPush(cmd, "Transfer", res)
		return nil
	},
}

var mintCmd = &cobra.Command{
	Use:   "mint <to>",
	Short: "Mint assets of a template to an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		s, err := a.build()
		if err != nil {
			return err
		}
		collection, err := a.collectionName(fundsCollection)
		if err != nil {
			return err
		}
		res, err := s.distributor.Mint(cmd.Context(), collection, mintSchema, mintTemplate, args[0], mintAmount)
		if err != nil {
			return err
		}
		printPush(cmd, "Minted "+strconv.Itoa(mintAmount), res)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{sendWaxCmd, sendCmd, mintCmd} {
		c.Flags().StringVar(&fundsCollection, "collection", "", "collection whose account signs (defaults to the only configured one)")
		c.Flags().StringVar(&fundsSender, "sender", "greenwiz", "name recorded in the memo")
	}
	sendCmd.Flags().StringVar(&sendMemo, "memo", "", "transfer memo")

	mintCmd.Flags().StringVar(&mintSchema, "schema", "", "schema name (defaults to the collection name)")
	mintCmd.Flags().Int32Var(&mintTemplate, "template", 0, "template id")
	mintCmd.Flags().IntVar(&mintAmount, "amount", 1, "number of assets to mint")
	_ = mintCmd.MarkFlagRequired("template")

	rootCmd.AddCommand(sendWaxCmd, sendCmd, mintCmd)
}
