package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/crptomonkeys/greenwiz/drops"
	"github.com/crptomonkeys/greenwiz/history"
	"github.com/crptomonkeys/greenwiz/lib/visualizer"
	"github.com/crptomonkeys/greenwiz/modules/atomictoolsx"
)

var (
	linkCollection string
	linkMemo       string
	linkNoWait     bool
	cancelBatch    int
	cleanupAge     time.Duration
	cleanupLimit   int
	cleanupDryRun  bool
)

var claimlinkCmd = &cobra.Command{
	Use:     "claimlink",
	Aliases: []string{"link"},
	Short:   "Create and cancel AtomicHub claim links",
}

var claimlinkCreateCmd = &cobra.Command{
	Use:   "create <asset ids...>",
	Short: "Escrow assets in a new claim link",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
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
		collection, err := a.collectionName(linkCollection)
		if err != nil {
			return err
		}

		create := func(ctx context.Context, progress history.Progress) (*atomictoolsx.Claimlink, error) {
			s.links.SetProgress(progress)
			return s.links.Create(ctx, collection, ids, linkMemo, !linkNoWait)
		}

		var link *atomictoolsx.Claimlink
		switch {
		case linkNoWait:
			link, err = create(cmd.Context(), nil)
		case color.NoColor:
			link, err = create(cmd.Context(), visualizer.NewLineView(cmd.ErrOrStderr()).Progress)
		default:
			_, err = visualizer.Track(cmd.Context(), "Creating claim link", cmd.ErrOrStderr(), func(ctx context.Context, progress history.Progress) (string, error) {
				var err error
				link, err = create(ctx, progress)
				if err != nil {
					return "", err
				}
				return link.LinkID, nil
			})
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", okColor.Sprint("Created claim link"), link.LinkID)
		fmt.Fprintf(out, "AtomicHub: %s\n", link.AtomicHubURL())
		fmt.Fprintf(out, "NeftyBlocks: %s\n", link.NeftyURL())
		return nil
	},
}

var claimlinkCancelCmd = &cobra.Command{
	Use:   "cancel <link ids...>",
	Short: "Cancel claim links and return their assets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
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
		collection, err := a.collectionName(linkCollection)
		if err != nil {
			return err
		}

		res, err := s.links.CancelMany(cmd.Context(), collection, ids, cancelBatch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %d links in %s\n", len(ids), res.TransactionID)
		return nil
	},
}

var claimlinkCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Cancel unclaimed links older than --older-than",
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
		collection, err := a.collectionName(linkCollection)
		if err != nil {
			return err
		}

		stale, err := s.links.FindStaleLinks(cmd.Context(), collection, cleanupAge, cleanupLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(stale) == 0 {
			fmt.Fprintln(out, "No stale claim links")
			return nil
		}

		w := newTable(out, "LINK", "CREATED")
		ids := make([]uint64, len(stale))
		for i, l := range stale {
			ids[i] = l.LinkID
			fmt.Fprintf(w, "%d\t%s\n", l.LinkID, l.Created.UTC().Format(time.RFC3339))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if cleanupDryRun {
			fmt.Fprintf(out, "%s %d links would be cancelled\n", warnColor.Sprint("dry run:"), len(ids))
			return nil
		}

		res, err := s.links.CancelMany(cmd.Context(), collection, ids, cancelBatch)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Cancelled %d links in %s\n", len(ids), res.TransactionID)
		return nil
	},
}

func init() {
	claimlinkCmd.PersistentFlags().StringVar(&linkCollection, "collection", "", "collection (defaults to the only configured one)")
	claimlinkCmd.PersistentFlags().IntVar(&cancelBatch, "batch", drops.DefaultCancelBatch, "most links cancelled per transaction")

	claimlinkCreateCmd.Flags().StringVar(&linkMemo, "memo", drops.DefaultLinkMemo, "memo shown on the link")
	claimlinkCreateCmd.Flags().BoolVar(&linkNoWait, "no-wait", false, "take the link id from the push result instead of waiting for confirmation")

	claimlinkCleanupCmd.Flags().DurationVar(&cleanupAge, "older-than", drops.DefaultStaleAge, "minimum link age")
	claimlinkCleanupCmd.Flags().IntVar(&cleanupLimit, "limit", 500, "most links to cancel")
	claimlinkCleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "list stale links without cancelling")

	claimlinkCmd.AddCommand(claimlinkCreateCmd, claimlinkCancelCmd, claimlinkCleanupCmd)
	rootCmd.AddCommand(claimlinkCmd)
}
