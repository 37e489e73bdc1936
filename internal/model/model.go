package model

import (
	"fmt"
	"strings"
)

const (
	AppName = "xpuctl"

	LogLevelInfo  = 0
	LogLevelDebug = 1
	LogLevelTrace = 2
)

// BMC describes one XPU baseboard management controller as configured by the operator.
//
// Username and Password are optional in the configuration file, an empty value
// is filled from the Config defaults when the configuration is loaded.
type BMC struct {
	// Name identifies the XPU in command output.
	Name string `mapstructure:"name"`

	// Vendor selects the Redfish implementation used to talk to the BMC.
	Vendor string `mapstructure:"vendor"`

	// Address is the BMC URL, for example https://10.0.0.5 or https://bmc-1:8443.
	Address string `mapstructure:"address"`

	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// String returns the BMC identity without its credentials.
func (b *BMC) String() string {
	return fmt.Sprintf("%s(%s, %s)", b.Name, b.Vendor, b.Address)
}

// BMCs is the ordered list of configured BMCs.
type BMCs []*BMC

// ByIndex returns the BMC at the given position in the configured list.
func (b BMCs) ByIndex(idx int) (*BMC, error) {
	if idx < 0 || idx >= len(b) {
		return nil, fmt.Errorf("xpu index %d out of range, %d XPUs configured", idx, len(b))
	}

	return b[idx], nil
}

// mergeCredentials fills in BMC credentials missing in the configuration
// from the global defaults.
func (c *Config) mergeCredentials() {
	if c.credentialsMerged {
		return
	}

	for idx, bmc := range c.BMCs {
		if bmc == nil {
			continue
		}

		if strings.TrimSpace(bmc.Username) == "" {
			bmc.Username = c.Username
		}

		if bmc.Password == "" {
			bmc.Password = c.Password
		}

		if strings.TrimSpace(bmc.Name) == "" {
			bmc.Name = fmt.Sprintf("xpu-%d", idx)
		}
	}

	c.credentialsMerged = true
}
