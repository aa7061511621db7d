package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFillsDefaultsForOmittedFields(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "provisiond-*.toml")
	require.NoError(t, err)
	_, err = f.WriteString(`
[ap]
ssid = "MyAP"
psk = "supersecret"
`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cfg, err := Load(f.Name())
	require.NoError(t, err)

	require.Equal(t, "MyAP", cfg.AP.SSID)
	require.Equal(t, "supersecret", cfg.AP.PSK)
	require.Equal(t, "wlan0", cfg.AP.Interface)
	require.Equal(t, "192.168.4.1/24", cfg.AP.GatewayCIDR)
	require.Equal(t, "g", cfg.AP.HWMode)
}

func TestBindAddr(t *testing.T) {
	cfg := ApConfig{BindIP: "192.168.4.1", BindPort: 80}
	require.Equal(t, "192.168.4.1:80", cfg.BindAddr())
}
