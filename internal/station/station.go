// Package station drives the STA Connector: pushing a client's credentials
// into the supplicant, polling wpa_state to a terminal outcome, and either
// handing the interface to the OS's own DHCP client (success) or restoring
// the AP (failure).
package station

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"provisiond/internal/ap"
	"provisiond/internal/audio"
	"provisiond/internal/config"
	"provisiond/internal/metrics"
	"provisiond/internal/model"
	"provisiond/internal/supplicant"
)

// ErrCommitRejected is returned when the supplicant settles into a
// disconnected/inactive/disabled state past the initial grace window.
var ErrCommitRejected = errors.New("association rejected")

// ErrCommitTimeout is returned when wpa_state never reaches COMPLETED
// within the polling budget.
var ErrCommitTimeout = errors.New("association timed out")

const (
	pollInterval = 2 * time.Second
	pollBudget   = 30 * time.Second
	gracePeriod  = 5 * time.Second

	dhcpClientPath = "/sbin/dhcpcd"
)

var rejectedStates = map[string]bool{
	"DISCONNECTED":        true,
	"INACTIVE":            true,
	"INTERFACE_DISABLED":  true,
}

var transientStates = map[string]bool{
	"ASSOCIATING":       true,
	"ASSOCIATED":        true,
	"4WAY_HANDSHAKE":    true,
	"GROUP_HANDSHAKE":   true,
	"SCANNING":          true,
}

// Connector owns the commit: the one-shot, irreversible attempt to
// associate with a client-chosen network.
type Connector struct {
	cfg      *config.ApConfig
	client   *supplicant.Client
	apCtrl   *ap.Controller
	notifier audio.Notifier
	log      *zap.SugaredLogger

	// Exit is called with status 0 on successful association. It is a
	// field rather than a bare os.Exit call so tests can observe a
	// successful commit without killing the test binary.
	Exit func(code int)
}

// New returns a Connector wired to the given AP controller and supplicant
// client. Connector does not own the AP; it tears it down and, on
// failure, asks the controller to bring it back up.
func New(cfg *config.ApConfig, client *supplicant.Client, apCtrl *ap.Controller, notifier audio.Notifier, log *zap.SugaredLogger) *Connector {
	return &Connector{
		cfg:      cfg,
		client:   client,
		apCtrl:   apCtrl,
		notifier: notifier,
		log:      log,
		Exit:     defaultExit,
	}
}

func defaultExit(code int) {
	os.Exit(code)
}

// Commit pushes req's credentials into the supplicant and drives
// association to a terminal outcome. On success it never returns: the
// process exits with status 0 once the DHCP client completes.
func (c *Connector) Commit(req model.ConnectionRequest) error {
	if err := c.apCtrl.TearDown(); err != nil {
		return fmt.Errorf("tearing down AP before commit: %w", err)
	}

	id, err := c.pushCredentials(req)
	if err != nil {
		c.notifier.Play(audio.ConnectionFailed)
		if upErr := c.apCtrl.BringUp(); upErr != nil {
			c.log.Errorf("restoring AP after failed credential push: %v", upErr)
		}
		return fmt.Errorf("pushing credentials: %w", err)
	}

	c.notifier.Play(audio.ConnectionStarted)

	state, err := c.poll()
	if err != nil {
		return c.fail(id, err)
	}
	_ = state

	return c.succeed(id)
}

func (c *Connector) pushCredentials(req model.ConnectionRequest) (int, error) {
	id, err := c.client.AddNetwork()
	if err != nil {
		return 0, err
	}

	if err := c.client.SetNetwork(id, "ssid", supplicant.HexEncodeSSID(req.SSID)); err != nil {
		return 0, err
	}

	if req.Password == "" {
		if err := c.client.SetNetwork(id, "key_mgmt", "NONE"); err != nil {
			return 0, err
		}
	} else {
		if err := c.client.SetNetwork(id, "psk", `"`+req.Password+`"`); err != nil {
			return 0, err
		}
	}

	if err := c.client.EnableNetwork(id); err != nil {
		return 0, err
	}

	return id, nil
}

// poll drives the 2s/30s wpa_state loop described in the component design.
func (c *Connector) poll() (string, error) {
	start := time.Now()
	deadline := start.Add(pollBudget)

	for {
		status, err := c.client.Status()
		if err != nil {
			return "", err
		}

		state := status["wpa_state"]
		switch {
		case state == "COMPLETED":
			return state, nil
		case transientStates[state]:
			// keep polling
		case rejectedStates[state]:
			if time.Since(start) > gracePeriod {
				return state, ErrCommitRejected
			}
		default:
			// unknown state: be permissive, keep polling
		}

		if time.Now().After(deadline) {
			return state, ErrCommitTimeout
		}
		time.Sleep(pollInterval)
	}
}

func (c *Connector) succeed(id int) error {
	if c.cfg.UpdateConfig {
		if err := c.client.SaveConfig(); err != nil {
			c.log.Warnf("SAVE_CONFIG failed: %v", err)
		}
	}

	c.notifier.Play(audio.ConnectionSuccess)

	if err := runDHCPClient(c.cfg.Interface); err != nil {
		c.log.Warnf("dhcp client for %s: %v", c.cfg.Interface, err)
	}

	metrics.CommitOutcomes.WithLabelValues("success").Inc()
	c.log.Infof("associated with network id %d, exiting", id)
	c.Exit(0)
	return nil
}

func (c *Connector) fail(id int, cause error) error {
	metrics.CommitOutcomes.WithLabelValues("failure").Inc()
	c.notifier.Play(audio.ConnectionFailed)

	if err := c.client.RemoveNetwork(id); err != nil {
		c.log.Warnf("removing failed network %d: %v", id, err)
	}

	if err := c.apCtrl.BringUp(); err != nil {
		c.log.Errorf("restoring AP after failed commit: %v", err)
	}

	return fmt.Errorf("commit failed: %w", cause)
}

func runDHCPClient(iface string) error {
	cmd := exec.Command(dhcpClientPath, "-q", "-n", iface)
	return cmd.Run()
}
