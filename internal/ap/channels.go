package ap

// hiBandFreq is the explicit channel->frequency table for 802.11a,
// covering the standard UNII-1/2/3 channels. There is no arithmetic
// shortcut here the way there is for the 2.4GHz band, so it is kept as a
// literal table, same as the channel classification tables in the
// wificaps/channels helpers this package is modeled on.
var hiBandFreq = map[int]int{
	36: 5180, 40: 5200, 44: 5220, 48: 5240,
	52: 5260, 56: 5280, 60: 5300, 64: 5320,
	100: 5500, 104: 5520, 108: 5540, 112: 5560,
	116: 5580, 120: 5600, 124: 5620, 128: 5640,
	132: 5660, 136: 5680, 140: 5700, 144: 5720,
	149: 5745, 153: 5765, 157: 5785, 161: 5805, 165: 5825,
}

// FreqForChannel returns the frequency in MHz for channel under hwMode
// ("b", "g", or "a"). The second return is false when the pair has no
// known mapping, in which case the caller should skip setting freq and let
// the driver choose.
func FreqForChannel(hwMode string, channel int) (int, bool) {
	switch hwMode {
	case "b", "g":
		if channel == 14 {
			return 2484, true
		}
		if channel >= 1 && channel <= 13 {
			return 2407 + 5*channel, true
		}
	case "a":
		if freq, ok := hiBandFreq[channel]; ok {
			return freq, true
		}
	}
	return 0, false
}
