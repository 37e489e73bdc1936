package cmd

import (
	"context"
	"io"
	"os"

	"github.com/metal-toolbox/xpuctl/internal/app"
	"github.com/spf13/cobra"
)

type viewFlags struct {
	xpu int
}

var (
	viewFlagSet = &viewFlags{}
)

var cmdView = &cobra.Command{
	Use:   "view --xpu <index>",
	Short: "View the detail of an XPU",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWithApp(func(a *app.App) error {
			return view(cmd.Context(), os.Stdout, a, viewFlagSet.xpu)
		})
	},
}

// view prints the detail of the XPU at idx in the configured list.
func view(ctx context.Context, w io.Writer, a *app.App, idx int) error {
	bmc, err := a.Config.BMCs.ByIndex(idx)
	if err != nil {
		return err
	}

	x, err := newXPU(ctx, a, bmc)
	if err != nil {
		return err
	}

	defer x.Close()

	printXPU(w, x)

	return nil
}

func init() {
	cmdView.Flags().IntVarP(&viewFlagSet.xpu, "xpu", "x", 0, "index of the XPU in the configuration file, starting at 0")

	if err := cmdView.MarkFlagRequired("xpu"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(cmdView)
}
