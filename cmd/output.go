package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/metal-toolbox/xpuctl/internal/discovery"
	"github.com/metal-toolbox/xpuctl/internal/xpu"
)

const (
	listRowFormat     = "%-20s%-10s%-15s%-10s%-15s%-15s%s\n"
	discoverRowFormat = "%-20s| %-30s| %-50s\n"
	viewRowFormat     = "%-28s%s\n"

	separatorWidth = 100
)

func printListHeader(w io.Writer) {
	fmt.Fprintf(w, listRowFormat, "ID", "Status", "Vendor", "FW", "SN", "BMC", "Address")
}

func printListRow(w io.Writer, x *xpu.XPU) {
	fmt.Fprintf(
		w,
		listRowFormat,
		x.BMC.Name,
		x.Status,
		x.Vendor,
		x.FirmwareVersion,
		x.SerialNumber,
		x.BMCVersion,
		x.BMC.Address,
	)
}

func printXPU(w io.Writer, x *xpu.XPU) {
	rows := [][2]string{
		{"ID:", x.BMC.Name},
		{"Status:", string(x.Status)},
		{"Vendor:", x.Vendor},
		{"Serial Number:", x.SerialNumber},
		{"Firmware Version:", x.FirmwareVersion},
		{"BMC Address:", x.BMC.Address},
		{"BMC Version:", x.BMCVersion},
	}

	if x.BMCFirmware != nil {
		rows = append(
			rows,
			[2]string{"BMC Firmware ID:", x.BMCFirmware.ID},
			[2]string{"BMC Firmware Description:", x.BMCFirmware.Description},
		)
	}

	for _, row := range rows {
		fmt.Fprintf(w, viewRowFormat, row[0], row[1])
	}
}

func printDiscoverHeader(w io.Writer) {
	fmt.Fprintf(w, discoverRowFormat, "Name", "BMC", "Status")
	fmt.Fprintln(w, strings.Repeat("-", separatorWidth))
}

func printDiscoverRow(w io.Writer, r *discovery.Result) {
	fmt.Fprintf(w, discoverRowFormat, r.Name, r.Address, r.Status())
}
