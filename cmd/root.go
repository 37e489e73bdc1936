package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/equinix-labs/otel-init-go/otelinit"
	"github.com/metal-toolbox/xpuctl/internal/app"
	"github.com/metal-toolbox/xpuctl/internal/metrics"
	"github.com/metal-toolbox/xpuctl/internal/model"
	"github.com/metal-toolbox/xpuctl/internal/version"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel int
	debug    bool
	trace    bool
)

var rootCmd = &cobra.Command{
	Use:           model.AppName,
	Short:         "xpuctl lists XPUs and onboards their BMCs over Redfish",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		switch {
		case trace:
			logLevel = model.LogLevelTrace
		case debug:
			logLevel = model.LogLevelDebug
		default:
			logLevel = model.LogLevelInfo
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	ctx, otelShutdown := otelinit.InitOpenTelemetry(ctx, model.AppName)

	err := rootCmd.ExecuteContext(ctx)

	otelShutdown(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runWithApp loads the xpuctl app and runs f,
// metrics are written to the configured textfile once f returns.
func runWithApp(f func(a *app.App) error) error {
	xpuctl, err := app.New(cfgFile, logLevel)
	if err != nil {
		return err
	}

	defer func() {
		if xpuctl.Config.MetricsTextfile == "" {
			return
		}

		version.ExportBuildInfoMetric()

		if err := metrics.WriteTextfile(xpuctl.Config.MetricsTextfile); err != nil {
			xpuctl.Logger.WithError(err).Warn("metrics not written")
		}
	}()

	return f(xpuctl)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config-file", "c", app.DefaultConfigFile, "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "", false, "set debug level logging")
	rootCmd.PersistentFlags().BoolVarP(&trace, "trace", "", false, "set trace level logging")
}
