package sanitize

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"provisiond/internal/supplicant"
)

func TestRemoveStaleClientSocketsClearsMatchesOnly(t *testing.T) {
	iface := fmt.Sprintf("sanitizetest%d", os.Getpid())
	log := zap.NewNop().Sugar()

	stale := fmt.Sprintf("/tmp/provisiond_ctrl_%s-111", iface)
	other := fmt.Sprintf("/tmp/provisiond_ctrl_%sother-222", iface)

	require.NoError(t, os.WriteFile(stale, nil, 0600))
	require.NoError(t, os.WriteFile(other, nil, 0600))
	defer os.Remove(stale)
	defer os.Remove(other)

	removeStaleClientSockets(iface, log)

	require.NoFileExists(t, stale)
	require.FileExists(t, other)
}

func TestClientSocketGlobMatchesDialNaming(t *testing.T) {
	iface := "wlan0"
	pattern := supplicant.ClientSocketGlob(iface)
	require.Equal(t, "/tmp/provisiond_ctrl_wlan0-*", pattern)
}
