package cmd

import (
	"context"
	"io"
	"os"

	"github.com/metal-toolbox/xpuctl/internal/app"
	"github.com/metal-toolbox/xpuctl/internal/model"
	"github.com/metal-toolbox/xpuctl/internal/redfish"
	"github.com/metal-toolbox/xpuctl/internal/xpu"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cmdList = &cobra.Command{
	Use:   "list",
	Short: "List all XPUs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWithApp(func(a *app.App) error {
			return list(cmd.Context(), os.Stdout, a)
		})
	},
}

// list prints a row for each XPU, the first XPU that cannot be queried aborts the listing.
func list(ctx context.Context, w io.Writer, a *app.App) error {
	printListHeader(w)

	for _, bmc := range a.Config.BMCs {
		x, err := newXPU(ctx, a, bmc)
		if err != nil {
			return err
		}

		printListRow(w, x)
		x.Close()
	}

	return nil
}

func newXPU(ctx context.Context, a *app.App, bmc *model.BMC) (*xpu.XPU, error) {
	logger := a.Logger.WithFields(
		logrus.Fields{
			"bmc":     bmc.Name,
			"vendor":  bmc.Vendor,
			"address": bmc.Address,
		},
	)

	x, err := xpu.New(ctx, bmc, redfish.OptionsFromConfig(a.Config, logger)...)
	if err != nil {
		return nil, errors.Wrap(err, "xpu "+bmc.Name)
	}

	return x, nil
}

func init() {
	rootCmd.AddCommand(cmdList)
}
