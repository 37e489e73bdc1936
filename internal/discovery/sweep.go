package discovery

import (
	"context"
	"time"

	sw "github.com/filanov/stateswitch"
	"github.com/google/uuid"
	"github.com/metal-toolbox/xpuctl/internal/metrics"
	"github.com/metal-toolbox/xpuctl/internal/model"
	"github.com/metal-toolbox/xpuctl/internal/redfish"
	"github.com/metal-toolbox/xpuctl/internal/rest"
	"github.com/metal-toolbox/xpuctl/internal/worker"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	pkgName = "internal/discovery"

	// StatusOk is the status reported for a BMC that accepts the configured credentials.
	StatusOk = "Ok"

	// requestsPerDiscovery is the most requests a discovery makes, probe, reset and verify.
	requestsPerDiscovery = 3
)

// Result is the outcome of a BMC discovery.
type Result struct {
	Name    string
	Address string
	State   sw.State
	Err     error
}

// Status returns Ok for a BMC that was discovered, or the error text.
func (r *Result) Status() string {
	if r.Err != nil {
		return r.Err.Error()
	}

	return StatusOk
}

type clientFunc func(bmc *model.BMC, opts ...redfish.Option) (redfish.Redfish, error)

// Discoverer runs the discovery for a set of BMCs.
type Discoverer struct {
	logger      *logrus.Logger
	sm          *StateMachine
	opts        []redfish.Option
	concurrency int
	timeout     time.Duration

	newClient        clientFunc
	newDefaultClient clientFunc
}

// NewDiscoverer returns a Discoverer with the concurrency and request settings in the configuration.
func NewDiscoverer(cfg *model.Config, logger *logrus.Logger) *Discoverer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = model.DefaultRequestTimeout
	}

	// each BMC is bounded by its requests, retries and the waits between them included.
	timeout = requestsPerDiscovery * rest.MaxRequestDuration(timeout, cfg.Retries)

	return &Discoverer{
		logger:           logger,
		sm:               NewStateMachine(),
		opts:             redfish.OptionsFromConfig(cfg, logrus.NewEntry(logger)),
		concurrency:      cfg.Concurrency,
		timeout:          timeout,
		newClient:        redfish.New,
		newDefaultClient: redfish.NewWithDefaultCredentials,
	}
}

// Discover runs the discovery for each BMC and returns the results in the order of the BMCs given.
//
// A failed discovery does not affect the discovery of the other BMCs,
// each BMC is discovered under its own timeout.
func (d *Discoverer) Discover(ctx context.Context, bmcs model.BMCs) []*Result {
	runID := uuid.New().String()

	ctx, span := otel.Tracer(pkgName).Start(
		ctx,
		"Discover",
		trace.WithAttributes(
			attribute.String("runID", runID),
			attribute.Int("bmcs", len(bmcs)),
		),
	)
	defer span.End()

	d.logger.WithFields(
		logrus.Fields{
			"runID":       runID,
			"bmcs":        len(bmcs),
			"concurrency": d.concurrency,
		},
	).Info("bmc discovery running")

	results := make([]*Result, len(bmcs))
	limiter := worker.NewLimiter(d.concurrency)

	for idx, bmc := range bmcs {
		idx, bmc := idx, bmc

		err := limiter.DispatchWait(ctx, func() {
			results[idx] = d.discover(ctx, runID, bmc)
		})

		if err != nil {
			results[idx] = &Result{Name: bmc.Name, Address: bmc.Address, State: StateFailed, Err: err}
		}
	}

	limiter.StopWait()

	return results
}

func (d *Discoverer) discover(ctx context.Context, runID string, bmc *model.BMC) *Result {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	ctx, span := otel.Tracer(pkgName).Start(
		ctx,
		"discover",
		trace.WithAttributes(
			attribute.String("bmc", bmc.Name),
			attribute.String("vendor", bmc.Vendor),
		),
	)
	defer span.End()

	startTS := time.Now()

	logger := d.logger.WithFields(
		logrus.Fields{
			"runID":   runID,
			"bmc":     bmc.Name,
			"vendor":  bmc.Vendor,
			"address": bmc.Address,
		},
	)

	discovery := NewDiscovery(bmc)

	client, err := d.newClient(bmc, d.opts...)
	if err != nil {
		discovery.Err = err
		discovery.Status = StateFailed
	} else {
		defer client.Close()

		hctx := &HandlerContext{
			Ctx:    ctx,
			Client: client,
			DefaultClient: func() (redfish.Redfish, error) {
				return d.newDefaultClient(bmc, d.opts...)
			},
			Logger: logger,
		}

		// the error is held in discovery.Err
		_ = d.sm.Run(discovery, hctx)
	}

	labels := map[string]string{"vendor": bmc.Vendor, "state": string(discovery.Status)}
	metrics.DiscoveryCounter.With(labels).Inc()
	metrics.DiscoveryRunTimeSummary.With(labels).Observe(time.Since(startTS).Seconds())

	if discovery.Err != nil {
		span.SetStatus(codes.Error, discovery.Err.Error())
		logger.WithError(discovery.Err).Warn("bmc discovery failed")
	} else {
		logger.Info("bmc discovered")
	}

	return &Result{
		Name:    bmc.Name,
		Address: bmc.Address,
		State:   discovery.Status,
		Err:     discovery.Err,
	}
}
