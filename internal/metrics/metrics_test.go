package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	DiscoveryCounter.WithLabelValues("bluefield", "ready").Inc()

	dst := filepath.Join(t.TempDir(), "xpuctl.prom")

	err := WriteTextfile(dst)
	require.NoError(t, err)

	b, err := os.ReadFile(dst)
	require.NoError(t, err)

	assert.Contains(t, string(b), `xpuctl_discovery_total{state="ready",vendor="bluefield"}`)
}

func TestWriteTextfileDisabled(t *testing.T) {
	assert.Nil(t, WriteTextfile(""))
}
