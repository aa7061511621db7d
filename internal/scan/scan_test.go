package scan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"provisiond/internal/model"
)

func TestParseScanResultsSkipsHeaderAndEmptySSIDs(t *testing.T) {
	body := "bssid\tfrequency\tsignal level\tflags\tssid\n" +
		"00:11:22:33:44:55\t2437\t-60\t[WPA2-PSK-CCMP][ESS]\tHome\n" +
		"aa:bb:cc:dd:ee:ff\t2437\t-80\t[ESS]\t\n" +
		"11:22:33:44:55:66\t2412\t-70\t[WPA-PSK-TKIP][ESS]\tOffice\n"

	networks := parseScanResults(body)

	require.Len(t, networks, 2)
	require.Equal(t, model.Network{SSID: "Home", Signal: 80, Security: model.SecurityWPA2}, networks[0])
	require.Equal(t, model.Network{SSID: "Office", Signal: 60, Security: model.SecurityWPA}, networks[1])
}

func TestParseScanResultsUnescapesSSID(t *testing.T) {
	body := "bssid\tfrequency\tsignal\tflags\tssid\n" +
		"00:11:22:33:44:55\t2437\t-75\t[ESS]\tcaf\\xc3\\xa9\n"

	networks := parseScanResults(body)

	require.Len(t, networks, 1)
	require.Equal(t, "café", networks[0].SSID)
	require.Equal(t, model.SecurityOpen, networks[0].Security)
}

func TestSignalToPercentClampsAndScales(t *testing.T) {
	cases := []struct {
		dbm  int
		want int
	}{
		{-110, 0},
		{-100, 0},
		{-75, 50},
		{-50, 100},
		{0, 100},
	}
	for _, c := range cases {
		require.Equal(t, c.want, SignalToPercent(c.dbm), "dbm=%d", c.dbm)
	}
}

func TestSignalToPercentMonotonic(t *testing.T) {
	prev := -1
	for dbm := -100; dbm <= -50; dbm++ {
		pct := SignalToPercent(dbm)
		require.GreaterOrEqual(t, pct, prev)
		prev = pct
	}
}
