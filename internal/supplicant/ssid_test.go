package supplicant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnescapeSSIDPlainASCII(t *testing.T) {
	require.Equal(t, "HomeNetwork", UnescapeSSID("HomeNetwork"))
}

func TestUnescapeSSIDHexEscape(t *testing.T) {
	// "café" encoded as UTF-8 is 63 61 66 c3 a9.
	require.Equal(t, "café", UnescapeSSID(`caf\xc3\xa9`))
}

func TestUnescapeSSIDUnknownEscapeLeftLiteral(t *testing.T) {
	require.Equal(t, `foo\zbar`, UnescapeSSID(`foo\zbar`))
}

func TestHexEncodeSSIDProducesHexDigits(t *testing.T) {
	for _, ssid := range []string{"Home", "café", "a b c"} {
		hexEncoded := HexEncodeSSID(ssid)
		require.NotEmpty(t, hexEncoded, "hex encoding of %q", ssid)
		require.Len(t, hexEncoded, len([]byte(ssid))*2)
		require.Regexp(t, "^[0-9a-f]+$", hexEncoded)
	}
	require.Empty(t, HexEncodeSSID(""))
}
