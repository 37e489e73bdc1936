package xpu

import (
	"context"
	"testing"
	"time"

	"github.com/metal-toolbox/xpuctl/internal/fixtures"
	"github.com/metal-toolbox/xpuctl/internal/model"
	"github.com/metal-toolbox/xpuctl/internal/redfish"
	"github.com/metal-toolbox/xpuctl/internal/rest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_New(t *testing.T) {
	fake := fixtures.NewFakeBMC("root", "configured")
	defer fake.Close()

	bmc := &model.BMC{
		Name:     "xpu-0",
		Vendor:   redfish.VendorBluefield,
		Address:  fake.URL,
		Username: "root",
		Password: "configured",
	}

	opts := []redfish.Option{redfish.WithInsecureSkipVerify(true), redfish.WithTimeout(5 * time.Second)}

	x, err := New(context.Background(), bmc, opts...)
	require.NoError(t, err)

	defer x.Close()

	assert.Equal(t, StatusReady, x.Status)
	assert.Equal(t, bmc, x.BMC)
	assert.Equal(t, "bluefield", x.Vendor)
	assert.Equal(t, "-", x.SerialNumber)
	assert.Equal(t, "-", x.FirmwareVersion)
	assert.Equal(t, fixtures.BMCFirmwareVersion, x.BMCVersion)
	assert.Equal(t, fixtures.BMCFirmwareID, x.BMCFirmware.ID)
	assert.Equal(t, fixtures.BMCFirmwareDescription, x.BMCFirmware.Description)

	// unchanged BMC, identical result
	again, err := New(context.Background(), bmc, opts...)
	require.NoError(t, err)

	defer again.Close()

	assert.Equal(t, x.BMCFirmware, again.BMCFirmware)
}

func Test_New_PropagatesErrors(t *testing.T) {
	fake := fixtures.NewFakeBMC("root", "configured")
	defer fake.Close()

	bmc := &model.BMC{
		Name:     "xpu-0",
		Vendor:   redfish.VendorBluefield,
		Address:  fake.URL,
		Username: "root",
		Password: "wrong",
	}

	x, err := New(context.Background(), bmc, redfish.WithInsecureSkipVerify(true))
	assert.Nil(t, x)
	assert.ErrorIs(t, err, redfish.ErrRest)
	assert.ErrorIs(t, err, rest.ErrAuthFailure)

	_, err = New(context.Background(), &model.BMC{Vendor: "pensando", Address: fake.URL})
	assert.ErrorIs(t, err, redfish.ErrVendorUnsupported)
}

func Test_NewWithClient(t *testing.T) {
	bmc := &model.BMC{Name: "xpu-1", Vendor: redfish.VendorBluefield, Address: "https://10.0.0.1"}

	t.Run("query succeeds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := redfish.NewMockRedfish(ctrl)

		client.EXPECT().BMCVersion(gomock.Any()).Return(&redfish.BMCVersion{ID: "BMC_Firmware", Version: "1.2.3"}, nil)
		client.EXPECT().Close()

		x, err := NewWithClient(context.Background(), bmc, client)
		require.NoError(t, err)

		assert.Equal(t, StatusReady, x.Status)
		assert.Equal(t, "1.2.3", x.BMCVersion)

		x.Close()
	})

	t.Run("query fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := redfish.NewMockRedfish(ctrl)

		queryErr := errors.New("connection reset")
		client.EXPECT().BMCVersion(gomock.Any()).Return(nil, queryErr)

		x, err := NewWithClient(context.Background(), bmc, client)
		assert.Nil(t, x)
		assert.ErrorIs(t, err, queryErr)
	})
}
