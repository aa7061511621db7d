// Package config loads the daemon's frozen configuration from a TOML file.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// ApConfig is the frozen record loaded at startup describing the AP's
// identity, the interface it runs on, and the supplicant plumbing around it.
type ApConfig struct {
	SSID string `toml:"ssid"`
	PSK  string `toml:"psk"`

	Interface   string `toml:"interface"`
	GatewayCIDR string `toml:"gateway_cidr"`

	DHCPRangeStart string `toml:"dhcp_range_start"`
	DHCPRangeEnd   string `toml:"dhcp_range_end"`

	HWMode  string `toml:"hw_mode"`
	Channel int    `toml:"channel"`

	// WPA is the supplicant's "wpa" bitmask: 1 selects WPA, 2 selects
	// RSN (WPA2), 3 selects both.
	WPA         int    `toml:"wpa"`
	KeyMgmt     string `toml:"key_mgmt"`
	Pairwise    string `toml:"pairwise"`
	GroupCipher string `toml:"group_cipher"`

	BindIP   string `toml:"bind_ip"`
	BindPort int    `toml:"bind_port"`

	CtrlDir      string `toml:"ctrl_dir"`
	CtrlGroup    string `toml:"ctrl_group"`
	ConfigPath   string `toml:"config_path"`
	UpdateConfig bool   `toml:"update_config"`
}

// BindAddr returns the "ip:port" string the HTTP server should listen on.
func (c *ApConfig) BindAddr() string {
	return fmt.Sprintf("%s:%d", c.BindIP, c.BindPort)
}

// AudioConfig configures the optional audio-cue notifier.
type AudioConfig struct {
	Enabled bool              `toml:"enabled"`
	Device  string            `toml:"device"`
	Events  map[string]string `toml:"events"`
}

// Config is the top-level shape of the TOML file.
type Config struct {
	AP     ApConfig    `toml:"ap"`
	Audio  AudioConfig `toml:"audio"`
}

var defaults = Config{
	AP: ApConfig{
		SSID:           "ProvisionerAP",
		Interface:      "wlan0",
		GatewayCIDR:    "192.168.4.1/24",
		DHCPRangeStart: "192.168.4.10",
		DHCPRangeEnd:   "192.168.4.200",
		HWMode:         "g",
		Channel:        6,
		WPA:            2,
		KeyMgmt:        "WPA-PSK",
		Pairwise:       "CCMP",
		GroupCipher:    "CCMP",
		BindIP:         "192.168.4.1",
		BindPort:       80,
		CtrlDir:        "/var/run/wpa_supplicant",
		CtrlGroup:      "netdev",
		ConfigPath:     "/tmp/wpa_supplicant-provisiond.conf",
		UpdateConfig:   false,
	},
	Audio: AudioConfig{
		Enabled: false,
		Device:  "auto",
	},
}

// Load reads and decodes the TOML file at path, filling in the package
// defaults for anything the file omits.
func Load(path string) (*Config, error) {
	cfg := defaults
	cfg.Audio.Events = map[string]string{}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		// Unknown keys are tolerated, not fatal - older config files
		// should keep working across daemon upgrades.
		_ = undec
	}

	return &cfg, nil
}
