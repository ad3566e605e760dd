package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "greenwiz",
	Short: "Greenwiz distributes WAX NFT drops and claim links",
	Long: `Greenwiz signs and broadcasts WAX transactions for NFT collections:
direct drops, claim links, stale link cleanup, WAX and mint transfers and the
two-hourly mining raffle. Every command reads greenwiz.toml unless --config
points elsewhere.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "greenwiz.toml", "path to the TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
