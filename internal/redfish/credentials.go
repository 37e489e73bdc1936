package redfish

import (
	"github.com/jinzhu/copier"
	"github.com/metal-toolbox/xpuctl/internal/model"
	"github.com/pkg/errors"
)

// DefaultCredential is the administrative account a vendor BMC ships with.
type DefaultCredential struct {
	Username string
	Password string
}

// defaultCredentials lists the factory default BMC credentials by vendor.
//
// These are used only to converge a BMC onto the configured credentials during discovery,
// any addition here must be reviewed as a credential change.
var defaultCredentials = map[string]DefaultCredential{
	VendorBluefield: {Username: "root", Password: "0penBmc"},
}

// DefaultCredentialFor returns the factory default credentials for the vendor.
func DefaultCredentialFor(vendor string) (DefaultCredential, error) {
	cred, exists := defaultCredentials[vendorKey(vendor)]
	if !exists {
		return DefaultCredential{}, errors.Wrap(ErrVendorUnsupported, "no default credentials for vendor: "+vendor)
	}

	return cred, nil
}

// DefaultBMC returns a copy of the BMC with its credentials set to the vendor factory defaults.
func DefaultBMC(bmc *model.BMC) (*model.BMC, error) {
	if bmc == nil {
		return nil, errors.New("bmc undefined")
	}

	cred, err := DefaultCredentialFor(bmc.Vendor)
	if err != nil {
		return nil, err
	}

	defaultBMC := &model.BMC{}
	if err := copier.Copy(defaultBMC, bmc); err != nil {
		return nil, wrapError(err)
	}

	defaultBMC.Username = cred.Username
	defaultBMC.Password = cred.Password

	return defaultBMC, nil
}
