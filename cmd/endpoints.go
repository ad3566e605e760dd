package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/crptomonkeys/greenwiz/lib/chainregistry"
)

var (
	probeRole        string
	probeConcurrency int
	probeTimeout     time.Duration
)

var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "Inspect the configured WAX endpoint rotation",
}

var endpointsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured endpoints per role",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		snapshot := a.registry.Snapshot()
		w := newTable(cmd.OutOrStdout(), "ROLE", "URL", "WEIGHT", "IN ROTATION")
		for _, role := range chainregistry.Roles {
			for _, e := range snapshot[role] {
				live := warnColor.Sprint("no")
				if e.Alive {
					live = okColor.Sprint("yes")
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", role, e.URL, e.Weight, live)
			}
		}
		return w.Flush()
	},
}

var endpointsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe endpoints and report health and latency",
	Long: `Probe every endpoint in rotation for a role, or for all roles when --role
is not given. Core endpoints report their head block and chain id.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		roles := chainregistry.Roles
		if probeRole != "" {
			role, err := chainregistry.ParseRole(probeRole)
			if err != nil {
				return err
			}
			roles = []chainregistry.Role{role}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
		defer cancel()

		w := newTable(cmd.OutOrStdout(), "ROLE", "URL", "STATUS", "LATENCY", "DETAIL")
		for _, role := range roles {
			results, err := a.registry.Probe(ctx, a.http, role, probeConcurrency)
			if err != nil {
				fmt.Fprintf(w, "%s\t-\t%s\t-\t%v\n", role, failColor.Sprint("none"), err)
				continue
			}
			for _, r := range results {
				status := okColor.Sprint("healthy")
				detail := r.ChainID
				if r.HeadBlock > 0 {
					detail += " head " + strconv.FormatUint(r.HeadBlock, 10)
				}
				if !r.Healthy {
					status = failColor.Sprint("failed")
					detail = r.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", role, r.URL, status, r.Latency.Round(time.Millisecond), detail)
			}
		}
		return w.Flush()
	},
}

func init() {
	endpointsCheckCmd.Flags().StringVar(&probeRole, "role", "", "only probe this role (core, history, indexer, market)")
	endpointsCheckCmd.Flags().IntVar(&probeConcurrency, "concurrency", chainregistry.DefaultProbeConcurrency, "parallel probes")
	endpointsCheckCmd.Flags().DurationVar(&probeTimeout, "timeout", time.Minute, "overall probe deadline")

	endpointsCmd.AddCommand(endpointsListCmd, endpointsCheckCmd)
	rootCmd.AddCommand(endpointsCmd)
}
