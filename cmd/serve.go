package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crptomonkeys/greenwiz/api"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin API, inventory refresh and the raffle schedule",
	Long: `Serve the admin HTTP API while refreshing inventory in the background and,
when [raffle] is enabled, drawing the mining raffle every even UTC hour.
Stops cleanly on SIGINT or SIGTERM.`,
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

		s.inventory.SetRefreshCallback(func(collection string, size int, err error) {
			if err != nil {
				a.logger.Warn("inventory refresh failed", "collection", collection, "err", err)
				return
			}
			a.logger.Debug("inventory refreshed", "collection", collection, "size", size)
		})

		deps := api.Deps{
			Registry:    a.registry,
			Inventory:   s.inventory,
			Distributor: s.distributor,
			Links:       s.links,
			Usage:       s.usage,
		}
		if runner != nil {
			deps.Raffle = runner
		}
		addr := a.config.API.Listen
		if serveListen != "" {
			addr = serveListen
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return s.inventory.Run(gctx) })
		if runner != nil {
			g.Go(func() error { return runner.Run(gctx) })
		}
		g.Go(func() error { return api.New(deps, a.config.API.Token, a.logger).Run(gctx, addr) })

		err = g.Wait()
		if errors.Is(err, context.Canceled) {
			a.logger.Info("shut down")
			return nil
		}
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "override [api] listen address")
	rootCmd.AddCommand(serveCmd)
}
