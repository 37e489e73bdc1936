package cmd

import (
	"context"
	"io"
	"os"

	"github.com/metal-toolbox/xpuctl/internal/app"
	"github.com/metal-toolbox/xpuctl/internal/discovery"
	"github.com/spf13/cobra"
)

var cmdDiscover = &cobra.Command{
	Use:   "discover",
	Short: "Discover all XPUs, setting the configured credentials on BMCs with vendor default credentials",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWithApp(func(a *app.App) error {
			return discover(cmd.Context(), os.Stdout, a)
		})
	},
}

// discover prints a row for each BMC with Ok or the reason its discovery failed.
func discover(ctx context.Context, w io.Writer, a *app.App) error {
	results := discovery.NewDiscoverer(a.Config, a.Logger).Discover(ctx, a.Config.BMCs)

	printDiscoverHeader(w)

	for _, r := range results {
		printDiscoverRow(w, r)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(cmdDiscover)
}
