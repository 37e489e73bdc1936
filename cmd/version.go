package cmd

import (
	"fmt"
	"strings"

	"github.com/metal-toolbox/xpuctl/internal/redfish"
	"github.com/metal-toolbox/xpuctl/internal/version"
	"github.com/spf13/cobra"
)

var cmdVersion = &cobra.Command{
	Use:   "version",
	Short: "Print xpuctl version along with dependency information and the supported BMC vendors.",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Print(version.Current().String())
		fmt.Printf("supported vendors: %s\n", strings.Join(redfish.Vendors(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(cmdVersion)
}
