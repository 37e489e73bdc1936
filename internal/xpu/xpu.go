// Package xpu assembles the XPU records displayed by the list and view commands.
package xpu

import (
	"context"

	"github.com/bmc-toolbox/common"
	"github.com/metal-toolbox/xpuctl/internal/metrics"
	"github.com/metal-toolbox/xpuctl/internal/model"
	"github.com/metal-toolbox/xpuctl/internal/redfish"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	pkgName = "internal/xpu"

	// placeholder is displayed for attributes not yet queried from the XPU.
	placeholder = "-"
)

// Status is the XPU status derived from its BMC.
type Status string

const (
	StatusReady   Status = "Ready"
	StatusError   Status = "Error"
	StatusUnknown Status = "Unknown"
)

// XPU is an accelerator card identified by its BMC,
// it lives for the duration of a command and is never persisted.
type XPU struct {
	BMC *model.BMC

	Vendor          string
	SerialNumber    string
	FirmwareVersion string

	// BMCVersion is the firmware version reported by the BMC.
	BMCVersion string
	// BMCFirmware is the BMC firmware inventory resource.
	BMCFirmware *redfish.BMCVersion

	Status Status

	redfish redfish.Redfish
}

// New returns the XPU for the BMC after querying its BMC firmware version
// with the BMC credentials.
//
// Errors from the query are returned to the caller,
// on success the XPU holds an open Redfish client released by Close.
func New(ctx context.Context, bmc *model.BMC, opts ...redfish.Option) (*XPU, error) {
	client, err := redfish.New(bmc, opts...)
	if err != nil {
		return nil, err
	}

	x, err := NewWithClient(ctx, bmc, client)
	if err != nil {
		client.Close()
		return nil, err
	}

	return x, nil
}

// NewWithClient returns the XPU for the BMC, querying its BMC firmware version through the given client.
func NewWithClient(ctx context.Context, bmc *model.BMC, client redfish.Redfish) (*XPU, error) {
	ctx, span := otel.Tracer(pkgName).Start(
		ctx,
		"xpu.New",
		trace.WithAttributes(
			attribute.String("bmc", bmc.Name),
			attribute.String("vendor", bmc.Vendor),
		),
	)
	defer span.End()

	x := &XPU{
		BMC:             bmc,
		Vendor:          common.FormatVendorName(bmc.Vendor),
		SerialNumber:    placeholder,
		FirmwareVersion: placeholder,
		Status:          StatusUnknown,
		redfish:         client,
	}

	version, err := client.BMCVersion(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		metrics.XPUQueryCounter.With(queryLabels(bmc.Vendor, StatusError)).Inc()

		return nil, err
	}

	x.BMCFirmware = version
	x.BMCVersion = version.Version
	x.Status = StatusReady

	metrics.XPUQueryCounter.With(queryLabels(bmc.Vendor, x.Status)).Inc()

	return x, nil
}

// Close releases the Redfish client.
func (x *XPU) Close() {
	if x.redfish != nil {
		x.redfish.Close()
	}
}

func queryLabels(vendor string, status Status) map[string]string {
	return map[string]string{
		"vendor": vendor,
		"status": string(status),
	}
}
