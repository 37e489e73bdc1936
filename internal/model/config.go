package model

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

const (
	WorkerConcurrency = 1

	// DefaultRequestTimeout bounds each request made to a BMC.
	DefaultRequestTimeout = 30 * time.Second
)

var (
	ErrConfig = errors.New("configuration error")
)

// Config holds the xpuctl configuration read from the configuration file and
// environment variables.
//
// The global Username and Password are the credentials xpuctl expects every BMC
// to accept, a BMC entry may override them.
//
// nolint:govet // prefer readability over field alignment optimization for this case.
type Config struct {
	// File is the configuration file path
	File string `mapstructure:"-"`
	// LogLevel is the app verbose logging level.
	LogLevel int `mapstructure:"-"`

	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// BMCs lists the XPU BMCs in the order they are displayed and addressed by index.
	BMCs BMCs `mapstructure:"bmc"`

	// Concurrency is the number of BMCs discovered in parallel.
	Concurrency int `mapstructure:"concurrency"`

	// Timeout is applied to each request made to a BMC.
	Timeout time.Duration `mapstructure:"timeout"`

	// Retries is the number of times a request is retried on connection errors
	// and server side failures, zero disables retries.
	Retries int `mapstructure:"retries"`

	// InsecureSkipVerify permits BMCs presenting self-signed certificates.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`

	// MetricsTextfile when set, has metrics written to it in the prometheus text format
	// once a command completes, for collection by the node exporter textfile collector.
	MetricsTextfile string `mapstructure:"metrics_textfile"`

	credentialsMerged bool
}

// Finalize applies defaults and merges the global credentials into the BMC entries.
//
// It is invoked once when the configuration is loaded and before any BMC is contacted,
// subsequent invocations leave the configuration as is.
func (c *Config) Finalize() {
	if c.Concurrency <= 0 {
		c.Concurrency = WorkerConcurrency
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultRequestTimeout
	}

	if c.Retries < 0 {
		c.Retries = 0
	}

	c.mergeCredentials()
}

// Validate checks the BMC entries, all invalid entries are returned in the error.
//
// The BMC vendor is not checked here, an unsupported vendor fails only the commands
// run against that BMC.
func (c *Config) Validate() error {
	var merr *multierror.Error

	if len(c.BMCs) == 0 {
		return errors.Wrap(ErrConfig, "no bmc entries defined")
	}

	for idx, bmc := range c.BMCs {
		if bmc == nil {
			merr = multierror.Append(merr, fmt.Errorf("bmc[%d]: empty entry", idx))
			continue
		}

		if err := validateBMC(bmc); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("bmc[%d] %s: %w", idx, bmc.Name, err))
		}
	}

	if merr == nil {
		return nil
	}

	merr.ErrorFormat = listFormat

	return errors.Wrap(ErrConfig, merr.Error())
}

// listFormat formats the multierror on a single line.
func listFormat(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return strings.Join(msgs, "; ")
}

func validateBMC(bmc *BMC) error {
	if strings.TrimSpace(bmc.Address) == "" {
		return errors.New("address not defined")
	}

	if _, err := url.Parse(bmc.Address); err != nil {
		return errors.Wrap(err, "address")
	}

	if bmc.Username == "" {
		return errors.New("username not defined")
	}

	if bmc.Password == "" {
		return errors.New("password not defined")
	}

	return nil
}
