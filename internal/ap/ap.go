// Package ap realizes the access point by enabling a mode=2 network
// inside the already-running supplicant, rather than spawning a second
// hostapd daemon, and spawns the DHCP/DNS-hijack sidecar that answers the
// captive-portal clients.
package ap

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"provisiond/internal/config"
	"provisiond/internal/metrics"
	"provisiond/internal/netctl"
	"provisiond/internal/supervisor"
	"provisiond/internal/supplicant"
)

const dnsmasqPath = "/usr/sbin/dnsmasq"

// Controller owns the AP lifecycle: the supplicant mode=2 network, the
// gateway address on the interface, and the DHCP sidecar.
type Controller struct {
	cfg        *config.ApConfig
	client     *supplicant.Client
	dhcp       *supervisor.Handle
	log        *zap.SugaredLogger
	mu         sync.Mutex
	networkID  *int
}

// New returns a Controller bound to client and managing cfg's AP.
func New(cfg *config.ApConfig, client *supplicant.Client, log *zap.SugaredLogger) *Controller {
	return &Controller{
		cfg:    cfg,
		client: client,
		dhcp:   supervisor.New(log),
		log:    log,
	}
}

// Up reports whether the AP network is currently installed.
func (c *Controller) Up() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.networkID != nil
}

// BringUp tears down any prior AP state, assigns the gateway address,
// installs a mode=2 network in the supplicant, and spawns the DHCP
// sidecar.
func (c *Controller) BringUp() error {
	if err := c.TearDown(); err != nil {
		return fmt.Errorf("pre-bringup teardown: %w", err)
	}

	if err := netctl.AddrAdd(c.cfg.Interface, c.cfg.GatewayCIDR); err != nil {
		metrics.APTransitions.WithLabelValues("up", "error").Inc()
		return fmt.Errorf("assigning gateway address: %w", err)
	}

	id, err := c.installNetwork()
	if err != nil {
		netctl.AddrDel(c.cfg.Interface, c.cfg.GatewayCIDR)
		metrics.APTransitions.WithLabelValues("up", "error").Inc()
		return fmt.Errorf("installing AP network: %w", err)
	}

	c.mu.Lock()
	c.networkID = &id
	c.mu.Unlock()

	if err := c.spawnSidecar(); err != nil {
		c.TearDown()
		metrics.APTransitions.WithLabelValues("up", "error").Inc()
		return fmt.Errorf("spawning DHCP sidecar: %w", err)
	}

	metrics.APTransitions.WithLabelValues("up", "success").Inc()
	c.log.Infof("AP up: ssid=%q iface=%s net_id=%d", c.cfg.SSID, c.cfg.Interface, id)
	return nil
}

func (c *Controller) installNetwork() (int, error) {
	id, err := c.client.AddNetwork()
	if err != nil {
		return 0, err
	}

	if err := c.client.SetNetwork(id, "mode", "2"); err != nil {
		return 0, err
	}
	if err := c.client.SetNetwork(id, "ssid", supplicant.HexEncodeSSID(c.cfg.SSID)); err != nil {
		return 0, err
	}

	if c.cfg.PSK != "" {
		if err := c.client.SetNetwork(id, "proto", protoForWPA(c.cfg.WPA)); err != nil {
			return 0, err
		}
		if err := c.client.SetNetwork(id, "key_mgmt", c.cfg.KeyMgmt); err != nil {
			return 0, err
		}
		if err := c.client.SetNetwork(id, "pairwise", c.cfg.Pairwise); err != nil {
			return 0, err
		}
		if err := c.client.SetNetwork(id, "group", c.cfg.GroupCipher); err != nil {
			return 0, err
		}
		if err := c.client.SetNetwork(id, "psk", quote(c.cfg.PSK)); err != nil {
			return 0, err
		}
	} else {
		if err := c.client.SetNetwork(id, "key_mgmt", "NONE"); err != nil {
			return 0, err
		}
	}

	if freq, ok := FreqForChannel(c.cfg.HWMode, c.cfg.Channel); ok {
		if err := c.client.SetNetwork(id, "freq", strconv.Itoa(freq)); err != nil {
			// Non-fatal: the driver will pick a frequency on its own.
			c.log.Warnf("setting freq for channel %d failed: %v", c.cfg.Channel, err)
		}
	}

	if err := c.client.EnableNetwork(id); err != nil {
		return 0, err
	}

	return id, nil
}

func (c *Controller) spawnSidecar() error {
	gwIP, _, err := net.ParseCIDR(c.cfg.GatewayCIDR)
	if err != nil {
		return fmt.Errorf("parsing gateway cidr: %w", err)
	}

	args := []string{
		"--interface=" + c.cfg.Interface,
		fmt.Sprintf("--dhcp-range=%s,%s", c.cfg.DHCPRangeStart, c.cfg.DHCPRangeEnd),
		"--address=/#/" + gwIP.String(),
		"--no-resolv",
		"--no-hosts",
		"--no-daemon",
	}

	return c.dhcp.Spawn(dnsmasqPath, args...)
}

// TearDown is idempotent: it kills the DHCP sidecar if owned, removes the
// AP network from the supplicant if one is installed, and removes the
// gateway address from the interface.
func (c *Controller) TearDown() error {
	c.dhcp.Kill()

	c.mu.Lock()
	id := c.networkID
	c.networkID = nil
	c.mu.Unlock()

	if id != nil {
		if err := c.client.RemoveNetwork(*id); err != nil {
			c.log.Warnf("removing AP network %d: %v", *id, err)
		}
	}

	if err := netctl.AddrDel(c.cfg.Interface, c.cfg.GatewayCIDR); err != nil {
		c.log.Warnf("removing gateway address: %v", err)
	}

	if id != nil {
		metrics.APTransitions.WithLabelValues("down", "success").Inc()
	}
	return nil
}

func protoForWPA(wpa int) string {
	switch wpa {
	case 1:
		return "WPA"
	case 3:
		return "WPA RSN"
	default:
		return "RSN"
	}
}

func quote(s string) string {
	return `"` + s + `"`
}
