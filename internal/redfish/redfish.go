// Package redfish provides the vendor specific Redfish operations xpuctl runs against XPU BMCs.
//
// Each vendor implementation registers a Constructor for its vendor tag,
// callers obtain a client through New and interact with it through the Redfish interface.
package redfish

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/metal-toolbox/xpuctl/internal/model"
	"github.com/metal-toolbox/xpuctl/internal/rest"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	ErrRest              = errors.New("redfish rest error")
	ErrIO                = errors.New("redfish io error")
	ErrVendorUnsupported = errors.New("unsupported vendor")
)

// Redfish defines the operations xpuctl runs on a BMC.
type Redfish interface {
	// ChangePassword sets the password of the BMC administrative account.
	ChangePassword(ctx context.Context, password string) error
	// BMCVersion returns the BMC firmware inventory.
	BMCVersion(ctx context.Context) (*BMCVersion, error)
	// Close releases connections held by the client.
	Close()
}

// BMCVersion is the BMC firmware inventory resource.
type BMCVersion struct {
	Description string `json:"Description"`
	ID          string `json:"Id"`
	Version     string `json:"Version"`
}

// Constructor returns a Redfish client for the BMC.
type Constructor func(bmc *model.BMC, opts ...Option) (Redfish, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// Register adds the vendor Redfish constructor to the registry,
// an existing constructor for the vendor is replaced.
func Register(vendor string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[vendorKey(vendor)] = constructor
}

// Vendors returns the sorted list of vendors with a registered Redfish implementation.
func Vendors() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	vendors := maps.Keys(registry)
	slices.Sort(vendors)

	return vendors
}

// New returns the Redfish client for the BMC vendor, authenticating with the BMC credentials.
func New(bmc *model.BMC, opts ...Option) (Redfish, error) {
	if bmc == nil {
		return nil, errors.Wrap(rest.ErrInvalidConfig, "bmc undefined")
	}

	registryMu.RLock()
	constructor, exists := registry[vendorKey(bmc.Vendor)]
	registryMu.RUnlock()

	if !exists {
		return nil, errors.Wrap(ErrVendorUnsupported, fmt.Sprintf("%q, supported: %s", bmc.Vendor, strings.Join(Vendors(), ", ")))
	}

	return constructor(bmc, opts...)
}

// NewWithDefaultCredentials returns the Redfish client for the BMC,
// authenticating with the vendor factory default credentials.
func NewWithDefaultCredentials(bmc *model.BMC, opts ...Option) (Redfish, error) {
	defaultBMC, err := DefaultBMC(bmc)
	if err != nil {
		return nil, err
	}

	return New(defaultBMC, opts...)
}

func vendorKey(vendor string) string {
	return strings.ToLower(strings.TrimSpace(vendor))
}

// Options are the client settings passed to a vendor Constructor.
type Options struct {
	Logger             *logrus.Entry
	Timeout            time.Duration
	Retries            int
	InsecureSkipVerify bool
}

// Option sets a client setting.
type Option func(*Options)

// WithLogger sets the client logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithTimeout sets the per request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithRetries sets the number of request retries.
func WithRetries(retries int) Option {
	return func(o *Options) {
		o.Retries = retries
	}
}

// WithInsecureSkipVerify permits self-signed BMC certificates.
func WithInsecureSkipVerify(skip bool) Option {
	return func(o *Options) {
		o.InsecureSkipVerify = skip
	}
}

// OptionsFromConfig returns the client options set in the xpuctl configuration.
func OptionsFromConfig(cfg *model.Config, logger *logrus.Entry) []Option {
	return []Option{
		WithLogger(logger),
		WithTimeout(cfg.Timeout),
		WithRetries(cfg.Retries),
		WithInsecureSkipVerify(cfg.InsecureSkipVerify),
	}
}

func newOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.Logger == nil {
		o.Logger = logrus.NewEntry(logrus.New())
	}

	return o
}

func (o *Options) newRestClient(address, username, password string) (*rest.Client, error) {
	return rest.New(
		&rest.Config{
			Address:            address,
			Username:           username,
			Password:           password,
			InsecureSkipVerify: o.InsecureSkipVerify,
			Timeout:            o.Timeout,
			Retries:            o.Retries,
		},
		rest.WithLogger(o.Logger),
	)
}
