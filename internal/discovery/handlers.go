package discovery

import (
	"context"

	sw "github.com/filanov/stateswitch"
	"github.com/metal-toolbox/xpuctl/internal/redfish"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HandlerContext holds the working attributes of a BMC discovery
//
// This struct is passed to transition handlers which
// depend on the values provided in this struct.
type HandlerContext struct {
	// Ctx bounds the requests made to the BMC.
	Ctx context.Context

	// Client authenticates with the configured credentials,
	// it is used to probe and verify the BMC.
	Client redfish.Redfish

	// DefaultClient returns a client authenticating with the vendor default credentials,
	// it is invoked only when the probe fails.
	DefaultClient func() (redfish.Redfish, error)

	Logger *logrus.Entry
}

// transitionHandler implements the Transitioner interface.
type transitionHandler struct{}

func transitionArgs(s sw.StateSwitch, args sw.TransitionArgs) (*Discovery, *HandlerContext, error) {
	d, ok := s.(*Discovery)
	if !ok {
		return nil, nil, ErrInvalidDiscovery
	}

	hctx, ok := args.(*HandlerContext)
	if !ok {
		return nil, nil, ErrInvalidHandlerContext
	}

	return d, hctx, nil
}

func (h *transitionHandler) Probe(s sw.StateSwitch, args sw.TransitionArgs) error {
	d, hctx, err := transitionArgs(s, args)
	if err != nil {
		return err
	}

	version, err := hctx.Client.BMCVersion(hctx.Ctx)
	if err != nil {
		hctx.Logger.WithError(err).Debug("bmc rejected probe with configured credentials")
		return err
	}

	d.BMCVersion = version

	return nil
}

func (h *transitionHandler) Reset(s sw.StateSwitch, args sw.TransitionArgs) error {
	d, hctx, err := transitionArgs(s, args)
	if err != nil {
		return err
	}

	if hctx.DefaultClient == nil {
		return ErrDefaultClientUndefined
	}

	if d.BMC.Password == "" {
		return ErrTargetPasswordUndefined
	}

	client, err := hctx.DefaultClient()
	if err != nil {
		return err
	}

	defer client.Close()

	hctx.Logger.Info("setting bmc password with vendor default credentials")

	return client.ChangePassword(hctx.Ctx, d.BMC.Password)
}

func (h *transitionHandler) Verify(s sw.StateSwitch, args sw.TransitionArgs) error {
	d, hctx, err := transitionArgs(s, args)
	if err != nil {
		return err
	}

	version, err := hctx.Client.BMCVersion(hctx.Ctx)
	if err != nil {
		return err
	}

	d.BMCVersion = version

	return nil
}

func (h *transitionHandler) Failed(s sw.StateSwitch, args sw.TransitionArgs) error {
	d, hctx, err := transitionArgs(s, args)
	if err != nil {
		return err
	}

	hctx.Logger.WithFields(
		logrus.Fields{
			"state": d.Status,
			"err":   d.Err,
		},
	).Warn("bmc discovery failed")

	return nil
}

func (h *transitionHandler) SaveState(s sw.StateSwitch, args sw.TransitionArgs) error {
	d, hctx, err := transitionArgs(s, args)
	if err != nil {
		return errors.Wrap(err, "save state")
	}

	hctx.Logger.WithField("state", d.Status).Debug("bmc discovery state")

	return nil
}
