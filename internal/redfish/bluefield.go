package redfish

import (
	"context"

	"github.com/metal-toolbox/xpuctl/internal/model"
	"github.com/metal-toolbox/xpuctl/internal/rest"
	"github.com/sirupsen/logrus"
)

const (
	VendorBluefield = "bluefield"

	bluefieldAccountPath  = "/redfish/v1/AccountService/Accounts/root"
	bluefieldFirmwarePath = "/redfish/v1/UpdateService/FirmwareInventory/BMC_Firmware"
)

func init() {
	Register(VendorBluefield, NewBluefield)
}

// Bluefield implements the Redfish interface for the BMC on NVIDIA BlueField DPUs.
type Bluefield struct {
	rest   *rest.Client
	logger *logrus.Entry
}

// NewBluefield returns a Bluefield Redfish client,
// credentials not set on the BMC default to the vendor factory defaults.
func NewBluefield(bmc *model.BMC, opts ...Option) (Redfish, error) {
	o := newOptions(opts...)

	username, password := bmc.Username, bmc.Password
	defaults := defaultCredentials[VendorBluefield]

	if username == "" {
		username = defaults.Username
	}

	if password == "" {
		password = defaults.Password
	}

	client, err := o.newRestClient(bmc.Address, username, password)
	if err != nil {
		return nil, wrapError(err)
	}

	return &Bluefield{
		rest:   client,
		logger: o.Logger,
	}, nil
}

// ChangePassword sets the password on the BMC root account.
func (b *Bluefield) ChangePassword(ctx context.Context, password string) error {
	payload := map[string]string{"Password": password}

	// the response body is not relied on, BMC firmware versions differ in what they return.
	if _, err := b.rest.Patch(ctx, bluefieldAccountPath, payload); err != nil {
		return wrapError(err)
	}

	b.logger.WithField("address", b.rest.Address()).Debug("bmc root account password changed")

	return nil
}

// BMCVersion returns the BMC firmware inventory.
func (b *Bluefield) BMCVersion(ctx context.Context) (*BMCVersion, error) {
	version := &BMCVersion{}
	if err := b.rest.GetJSON(ctx, bluefieldFirmwarePath, version); err != nil {
		return nil, wrapError(err)
	}

	return version, nil
}

// Close releases connections held by the client.
func (b *Bluefield) Close() {
	b.rest.Close()
}
