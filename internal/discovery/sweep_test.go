package discovery

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/metal-toolbox/xpuctl/internal/fixtures"
	"github.com/metal-toolbox/xpuctl/internal/model"
	"github.com/metal-toolbox/xpuctl/internal/redfish"
	"github.com/metal-toolbox/xpuctl/internal/rest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestDiscoverer(concurrency int) *Discoverer {
	logger := logrus.New()
	logger.Out = io.Discard

	cfg := &model.Config{
		Concurrency:        concurrency,
		Timeout:            5 * time.Second,
		InsecureSkipVerify: true,
	}

	return NewDiscoverer(cfg, logger)
}

func bmcFor(name string, fake *fixtures.FakeBMC) *model.BMC {
	return &model.BMC{
		Name:     name,
		Vendor:   redfish.VendorBluefield,
		Address:  fake.URL,
		Username: "root",
		Password: "configured",
	}
}

func Test_NewDiscoverer_Timeout(t *testing.T) {
	logger := logrus.New()
	logger.Out = io.Discard

	d := NewDiscoverer(&model.Config{Timeout: 5 * time.Second}, logger)
	assert.Equal(t, 15*time.Second, d.timeout)

	// retried requests and the backoff between them fit in the deadline
	d = NewDiscoverer(&model.Config{Timeout: 5 * time.Second, Retries: 2}, logger)
	assert.Equal(t, 3*rest.MaxRequestDuration(5*time.Second, 2), d.timeout)
	assert.Greater(t, d.timeout, 3*3*5*time.Second)
}

func Test_Discover(t *testing.T) {
	// accepts the configured credentials
	ready := fixtures.NewFakeBMC("root", "configured")
	defer ready.Close()

	// ships with the vendor default credentials
	fresh := fixtures.NewFakeBMC("root", "0penBmc")
	defer fresh.Close()

	// rejects configured and default credentials
	locked := fixtures.NewFakeBMC("root", "unknown")
	defer locked.Close()

	// acknowledges the password change without applying it
	stuck := fixtures.NewFakeBMC("root", "0penBmc")
	stuck.IgnorePasswordChange()

	defer stuck.Close()

	// fails the password change
	broken := fixtures.NewFakeBMC("root", "0penBmc")
	broken.SetPatchStatus(http.StatusInternalServerError)

	defer broken.Close()

	bmcs := model.BMCs{
		bmcFor("ready", ready),
		bmcFor("fresh", fresh),
		bmcFor("locked", locked),
		bmcFor("stuck", stuck),
		bmcFor("broken", broken),
		// probed after the failures
		bmcFor("ready-again", ready),
		{Name: "bad-address", Vendor: redfish.VendorBluefield, Address: "ftp://10.0.0.1", Username: "root", Password: "configured"},
		{Name: "typo", Vendor: "bluefeild", Address: ready.URL, Username: "root", Password: "configured"},
	}

	for _, concurrency := range []int{1, 4} {
		results := newTestDiscoverer(concurrency).Discover(context.Background(), bmcs)
		require.Len(t, results, len(bmcs))

		for idx, r := range results {
			assert.Equal(t, bmcs[idx].Name, r.Name, "results are in input order")
			assert.Equal(t, bmcs[idx].Address, r.Address)
		}

		assert.Equal(t, "Ok", results[0].Status())
		assert.Equal(t, StateReady, results[0].State)

		assert.Equal(t, "Ok", results[1].Status())
		assert.Equal(t, StateReady, results[1].State)

		assert.Equal(t, StateFailed, results[2].State)
		assert.ErrorIs(t, results[2].Err, rest.ErrAuthFailure)
		assert.Equal(t, "PATCH "+locked.URL+"/redfish/v1/AccountService/Accounts/root: 401 Unauthorized", results[2].Status())

		assert.Equal(t, StateFailed, results[3].State)
		assert.Equal(t, "GET "+stuck.URL+"/redfish/v1/UpdateService/FirmwareInventory/BMC_Firmware: 401 Unauthorized", results[3].Status())

		assert.Equal(t, StateFailed, results[4].State)
		assert.ErrorIs(t, results[4].Err, redfish.ErrRest)
		assert.Contains(t, results[4].Status(), "500 Internal Server Error")

		assert.Equal(t, "Ok", results[5].Status())

		assert.Equal(t, StateFailed, results[6].State)
		assert.ErrorIs(t, results[6].Err, rest.ErrInvalidConfig)

		assert.Equal(t, StateFailed, results[7].State)
		assert.ErrorIs(t, results[7].Err, redfish.ErrVendorUnsupported)
		assert.Equal(t, `"bluefeild", supported: bluefield: unsupported vendor`, results[7].Status())
	}

	// the fresh BMC now accepts the configured credentials
	assert.Equal(t, "configured", fresh.Password())
	assert.Equal(t, "0penBmc", stuck.Password())
	assert.Equal(t, "unknown", locked.Password())
}

func Test_Discover_RequestSequence(t *testing.T) {
	fresh := fixtures.NewFakeBMC("root", "0penBmc")
	defer fresh.Close()

	results := newTestDiscoverer(1).Discover(context.Background(), model.BMCs{bmcFor("fresh", fresh)})
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)

	got := fresh.Requests()
	require.Len(t, got, 3)

	assert.Equal(t, fixtures.Request{Method: "GET", Path: fixtures.BMCFirmwarePath, Username: "root", Password: "configured"}, got[0])
	assert.Equal(t, fixtures.Request{Method: "PATCH", Path: fixtures.RootAccountPath, Username: "root", Password: "0penBmc"}, got[1])
	assert.Equal(t, fixtures.Request{Method: "GET", Path: fixtures.BMCFirmwarePath, Username: "root", Password: "configured"}, got[2])
}

func Test_Discover_Cancelled(t *testing.T) {
	ctrl := gomock.NewController(t)

	d := newTestDiscoverer(1)
	d.newClient = func(bmc *model.BMC, opts ...redfish.Option) (redfish.Redfish, error) {
		client := redfish.NewMockRedfish(ctrl)
		client.EXPECT().BMCVersion(gomock.Any()).DoAndReturn(func(ctx context.Context) (*redfish.BMCVersion, error) {
			return nil, ctx.Err()
		}).AnyTimes()
		client.EXPECT().Close().AnyTimes()

		return client, nil
	}

	d.newDefaultClient = func(bmc *model.BMC, opts ...redfish.Option) (redfish.Redfish, error) {
		client := redfish.NewMockRedfish(ctrl)
		client.EXPECT().ChangePassword(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ string) error {
			return ctx.Err()
		}).AnyTimes()
		client.EXPECT().Close().AnyTimes()

		return client, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bmcs := model.BMCs{newTestBMC(), newTestBMC()}

	results := d.Discover(ctx, bmcs)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Equal(t, StateFailed, r.State)
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func Test_Discover_IndependentTimeouts(t *testing.T) {
	ctrl := gomock.NewController(t)

	hung := newTestBMC()
	hung.Name = "hung"

	healthy := newTestBMC()
	healthy.Name = "healthy"

	d := newTestDiscoverer(2)
	d.timeout = 50 * time.Millisecond
	d.newClient = func(bmc *model.BMC, opts ...redfish.Option) (redfish.Redfish, error) {
		client := redfish.NewMockRedfish(ctrl)
		client.EXPECT().Close().AnyTimes()

		if bmc.Name == "hung" {
			client.EXPECT().BMCVersion(gomock.Any()).DoAndReturn(func(ctx context.Context) (*redfish.BMCVersion, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}).AnyTimes()

			return client, nil
		}

		client.EXPECT().BMCVersion(gomock.Any()).DoAndReturn(func(ctx context.Context) (*redfish.BMCVersion, error) {
			time.Sleep(20 * time.Millisecond)
			return &redfish.BMCVersion{Version: "1.2.3"}, ctx.Err()
		})

		return client, nil
	}

	d.newDefaultClient = func(bmc *model.BMC, opts ...redfish.Option) (redfish.Redfish, error) {
		return nil, context.DeadlineExceeded
	}

	results := d.Discover(context.Background(), model.BMCs{hung, healthy})
	require.Len(t, results, 2)

	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
	assert.Equal(t, StateFailed, results[0].State)

	assert.NoError(t, results[1].Err)
	assert.Equal(t, StateReady, results[1].State)
}
