// Package discovery converges XPU BMCs from their vendor default credentials
// onto the credentials configured for xpuctl.
//
// Each BMC is discovered by a statemachine,
//
//	probing -> ready                                   configured credentials accepted
//	probing -> resetting -> verifying -> ready         password set with the vendor default credentials
//	resetting, verifying -> failed                     default credentials rejected or the change did not apply
package discovery

import (
	"fmt"

	sw "github.com/filanov/stateswitch"
	"github.com/hashicorp/go-multierror"
	"github.com/metal-toolbox/xpuctl/internal/metrics"
	"github.com/metal-toolbox/xpuctl/internal/model"
	"github.com/metal-toolbox/xpuctl/internal/redfish"
	"github.com/pkg/errors"
)

const (
	// discovery states
	StateProbing   sw.State = "probing"
	StateResetting sw.State = "resetting"
	StateVerifying sw.State = "verifying"
	StateReady     sw.State = "ready"
	StateFailed    sw.State = "failed"

	TransitionTypeProbe       sw.TransitionType = "probe"
	TransitionTypeProbeFailed sw.TransitionType = "probeFailed"
	TransitionTypeReset       sw.TransitionType = "reset"
	TransitionTypeVerify      sw.TransitionType = "verify"
	TransitionTypeFail        sw.TransitionType = "fail"
)

var (
	ErrDiscoveryTransition     = errors.New("error in discovery transition")
	ErrInvalidDiscovery        = errors.New("expected a Discovery{} type")
	ErrInvalidHandlerContext   = errors.New("expected a HandlerContext{} type")
	ErrDefaultClientUndefined  = errors.New("default credentials client undefined")
	ErrTargetPasswordUndefined = errors.New("configured bmc password undefined")
)

// Discovery is the discovery of a single BMC, it implements the stateswitch.StateSwitch interface.
type Discovery struct {
	BMC    *model.BMC
	Status sw.State

	// BMCVersion is set once the BMC accepts the configured credentials.
	BMCVersion *redfish.BMCVersion

	// ProbeErr is the error returned when the BMC was probed with the configured credentials.
	ProbeErr error

	// Err is set when the discovery failed.
	Err error
}

// NewDiscovery returns a Discovery for the BMC in the probing state.
func NewDiscovery(bmc *model.BMC) *Discovery {
	return &Discovery{BMC: bmc, Status: StateProbing}
}

// State implements the stateswitch.StateSwitch interface.
func (d *Discovery) State() sw.State {
	return d.Status
}

// SetState implements the stateswitch.StateSwitch interface.
func (d *Discovery) SetState(state sw.State) error {
	d.Status = state
	return nil
}

// Completed returns true when the discovery reached a final state.
func (d *Discovery) Completed() bool {
	return d.Status == StateReady || d.Status == StateFailed
}

// Transitioner defines stateswitch methods that handle the discovery transitions.
type Transitioner interface {
	Probe(sw sw.StateSwitch, args sw.TransitionArgs) error
	Reset(sw sw.StateSwitch, args sw.TransitionArgs) error
	Verify(sw sw.StateSwitch, args sw.TransitionArgs) error
	Failed(sw sw.StateSwitch, args sw.TransitionArgs) error
	SaveState(sw sw.StateSwitch, args sw.TransitionArgs) error
}

// step is the transition run from a state, and the transition run when it returns an error.
type step struct {
	transition sw.TransitionType
	onError    sw.TransitionType
}

var steps = map[sw.State]step{
	StateProbing:   {TransitionTypeProbe, TransitionTypeProbeFailed},
	StateResetting: {TransitionTypeReset, TransitionTypeFail},
	StateVerifying: {TransitionTypeVerify, TransitionTypeFail},
}

// StateMachine drives a BMC discovery.
type StateMachine struct {
	sm sw.StateMachine
}

// NewStateMachine returns the discovery statemachine.
func NewStateMachine() *StateMachine {
	return newStateMachine(&transitionHandler{})
}

func newStateMachine(handler Transitioner) *StateMachine {
	m := &StateMachine{sm: sw.NewStateMachine()}

	m.sm.AddTransition(sw.TransitionRule{
		TransitionType:   TransitionTypeProbe,
		SourceStates:     sw.States{StateProbing},
		DestinationState: StateReady,
		Condition:        nil,
		Transition:       handler.Probe,
		PostTransition:   handler.SaveState,
		Documentation: sw.TransitionRuleDoc{
			Name:        "BMC accepts configured credentials",
			Description: "The BMC firmware inventory is queried with the configured credentials.",
		},
	})

	m.sm.AddTransition(sw.TransitionRule{
		TransitionType:   TransitionTypeProbeFailed,
		SourceStates:     sw.States{StateProbing},
		DestinationState: StateResetting,
		Condition:        nil,
		Transition:       nil,
		PostTransition:   handler.SaveState,
		Documentation: sw.TransitionRuleDoc{
			Name:        "BMC rejects configured credentials",
			Description: "The firmware inventory query with the configured credentials failed, the vendor default credentials are tried next.",
		},
	})

	m.sm.AddTransition(sw.TransitionRule{
		TransitionType:   TransitionTypeReset,
		SourceStates:     sw.States{StateResetting},
		DestinationState: StateVerifying,
		Condition:        nil,
		Transition:       handler.Reset,
		PostTransition:   handler.SaveState,
		Documentation: sw.TransitionRuleDoc{
			Name:        "Password set with default credentials",
			Description: "The administrative account password is set to the configured password, authenticating with the vendor default credentials.",
		},
	})

	m.sm.AddTransition(sw.TransitionRule{
		TransitionType:   TransitionTypeVerify,
		SourceStates:     sw.States{StateVerifying},
		DestinationState: StateReady,
		Condition:        nil,
		Transition:       handler.Verify,
		PostTransition:   handler.SaveState,
		Documentation: sw.TransitionRuleDoc{
			Name:        "BMC accepts updated credentials",
			Description: "The BMC firmware inventory is queried again with the configured credentials.",
		},
	})

	m.sm.AddTransition(sw.TransitionRule{
		TransitionType:   TransitionTypeFail,
		SourceStates:     sw.States{StateProbing, StateResetting, StateVerifying},
		DestinationState: StateFailed,
		Condition:        nil,
		Transition:       handler.Failed,
		PostTransition:   handler.SaveState,
		Documentation: sw.TransitionRuleDoc{
			Name:        "Discovery failed",
			Description: "The default credentials were rejected, or the BMC did not accept the configured credentials after the password change.",
		},
	})

	m.addDocumentation()

	return m
}

func (m *StateMachine) addDocumentation() {
	states := []sw.StateDoc{
		{Name: string(StateProbing), Description: "The BMC is queried with the configured credentials."},
		{Name: string(StateResetting), Description: "The BMC password is being set using the vendor default credentials."},
		{Name: string(StateVerifying), Description: "The configured credentials are verified after the password change."},
		{Name: string(StateReady), Description: "The BMC accepts the configured credentials."},
		{Name: string(StateFailed), Description: "The BMC could not be converged onto the configured credentials."},
	}

	for _, doc := range states {
		m.sm.DescribeState(sw.State(doc.Name), doc)
	}

	transitions := []sw.TransitionTypeDoc{
		{Name: string(TransitionTypeProbe), Description: "Query the BMC with the configured credentials."},
		{Name: string(TransitionTypeProbeFailed), Description: "Fall back to the vendor default credentials."},
		{Name: string(TransitionTypeReset), Description: "Set the configured password with the vendor default credentials."},
		{Name: string(TransitionTypeVerify), Description: "Query the BMC with the configured credentials after the password change."},
		{Name: string(TransitionTypeFail), Description: "Mark the discovery failed."},
	}

	for _, doc := range transitions {
		m.sm.DescribeTransitionType(sw.TransitionType(doc.Name), doc)
	}
}

// DescribeAsJSON returns a JSON output describing the discovery statemachine.
func (m *StateMachine) DescribeAsJSON() ([]byte, error) {
	return m.sm.AsJSON()
}

// Run runs the discovery transitions until the discovery is ready or failed.
//
// A failed probe is followed by the password reset with the vendor default credentials,
// any other failed transition fails the discovery and its error is returned.
func (m *StateMachine) Run(d *Discovery, hctx *HandlerContext) error {
	for !d.Completed() {
		next, exists := steps[d.Status]
		if !exists {
			return m.fail(d, hctx, errors.Wrap(ErrDiscoveryTransition, fmt.Sprintf("no transition defined for state '%s'", d.Status)))
		}

		err := m.sm.Run(next.transition, d, hctx)
		m.countTransition(d, next.transition, err)

		if err == nil {
			continue
		}

		if errors.Is(err, sw.NoConditionPassedToRunTransaction) {
			err = errors.Wrap(
				ErrDiscoveryTransition,
				fmt.Sprintf("no transition rule found for transition type '%s' and state '%s'", next.transition, d.Status),
			)
		}

		if next.onError == TransitionTypeFail {
			return m.fail(d, hctx, err)
		}

		d.ProbeErr = err

		err = m.sm.Run(next.onError, d, hctx)
		m.countTransition(d, next.onError, err)

		if err != nil {
			return m.fail(d, hctx, err)
		}
	}

	return d.Err
}

func (m *StateMachine) fail(d *Discovery, hctx *HandlerContext, cause error) error {
	d.Err = cause

	if err := m.sm.Run(TransitionTypeFail, d, hctx); err != nil {
		// the discovery is marked failed regardless, the returned error includes the cause
		_ = d.SetState(StateFailed)

		return multierror.Append(cause, errors.Wrap(err, "discovery fail transition error"))
	}

	m.countTransition(d, TransitionTypeFail, nil)

	return cause
}

func (m *StateMachine) countTransition(d *Discovery, transition sw.TransitionType, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	metrics.DiscoveryTransitionCounter.With(
		map[string]string{
			"vendor":     d.BMC.Vendor,
			"transition": string(transition),
			"result":     result,
		},
	).Inc()
}
