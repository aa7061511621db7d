package ap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreqForChannelLoBand(t *testing.T) {
	freq, ok := FreqForChannel("g", 1)
	require.True(t, ok)
	require.Equal(t, 2412, freq)

	freq, ok = FreqForChannel("b", 11)
	require.True(t, ok)
	require.Equal(t, 2462, freq)

	freq, ok = FreqForChannel("g", 14)
	require.True(t, ok)
	require.Equal(t, 2484, freq)
}

func TestFreqForChannelLoBandOutOfRange(t *testing.T) {
	_, ok := FreqForChannel("g", 15)
	require.False(t, ok)
}

func TestFreqForChannelHiBand(t *testing.T) {
	freq, ok := FreqForChannel("a", 36)
	require.True(t, ok)
	require.Equal(t, 5180, freq)

	freq, ok = FreqForChannel("a", 149)
	require.True(t, ok)
	require.Equal(t, 5745, freq)
}

func TestFreqForChannelUnknownMapping(t *testing.T) {
	_, ok := FreqForChannel("a", 7)
	require.False(t, ok)

	_, ok = FreqForChannel("x", 1)
	require.False(t, ok)
}
