// Package sanitize performs the idempotent host cleanup that runs once at
// process start: killing orphaned daemons left by an unclean previous
// shutdown, flushing stale interface role state, and launching a fresh
// wpa_supplicant ready for the Supplicant Client to attach to.
package sanitize

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"provisiond/internal/aputil"
	"provisiond/internal/config"
	"provisiond/internal/netctl"
	"provisiond/internal/supplicant"
)

var orphanBinaries = []string{"wpa_supplicant", "hostapd", "dnsmasq"}

const (
	quiesceDelay    = 500 * time.Millisecond
	linkToggleDelay = 250 * time.Millisecond
	socketWait      = 5 * time.Second
	wpaSupplicant   = "/sbin/wpa_supplicant"
)

// Run executes the sanitizer policy and hands back a freshly connected
// Supplicant Client. Any error it returns is fatal to the daemon: there is
// no meaningful way to proceed without a working control socket. Failures
// to bring the link down or to remove stale sockets are only logged.
func Run(cfg *config.ApConfig, log *zap.SugaredLogger) (*supplicant.Client, error) {
	log.Infof("sanitizer: killing orphaned daemons")
	killAll(log, orphanBinaries)
	time.Sleep(quiesceDelay)

	log.Infof("sanitizer: toggling %s to flush role state", cfg.Interface)
	if err := netctl.LinkDown(cfg.Interface); err != nil {
		log.Warnf("link down: %v", err)
	}
	time.Sleep(linkToggleDelay)
	if err := netctl.LinkUp(cfg.Interface); err != nil {
		return nil, fmt.Errorf("bringing %s up: %w", cfg.Interface, err)
	}

	remoteSocket := cfg.CtrlDir + "/" + cfg.Interface
	os.Remove(remoteSocket)
	removeStaleClientSockets(cfg.Interface, log)

	if err := writeSupplicantConfig(cfg); err != nil {
		return nil, fmt.Errorf("writing supplicant config: %w", err)
	}

	if err := spawnSupplicant(cfg, log); err != nil {
		return nil, fmt.Errorf("spawning wpa_supplicant: %w", err)
	}

	if err := waitForSocket(remoteSocket, socketWait); err != nil {
		return nil, fmt.Errorf("waiting for control socket: %w", err)
	}

	client, err := supplicant.Dial(cfg.CtrlDir, cfg.Interface, log)
	if err != nil {
		return nil, fmt.Errorf("opening control handle: %w", err)
	}

	log.Infof("sanitizer: supplicant ready on %s", cfg.Interface)
	return client, nil
}

// removeStaleClientSockets clears out this daemon's own control-socket
// endpoints left behind by a prior, uncleanly-terminated run. Each run
// names its client socket after its own pid, so a crashed predecessor's
// socket is never reclaimed by the new process's Dial call unless we
// glob for it here.
func removeStaleClientSockets(iface string, log *zap.SugaredLogger) {
	matches, err := filepath.Glob(supplicant.ClientSocketGlob(iface))
	if err != nil {
		log.Warnf("globbing stale client sockets for %s: %v", iface, err)
		return
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warnf("removing stale client socket %s: %v", path, err)
		}
	}
}

func writeSupplicantConfig(cfg *config.ApConfig) error {
	update := 0
	if cfg.UpdateConfig {
		update = 1
	}

	contents := fmt.Sprintf("ctrl_interface=DIR=%s GROUP=%s\nupdate_config=%d\n",
		cfg.CtrlDir, cfg.CtrlGroup, update)

	return os.WriteFile(cfg.ConfigPath, []byte(contents), 0600)
}

func spawnSupplicant(cfg *config.ApConfig, log *zap.SugaredLogger) error {
	child := aputil.NewChild(log, wpaSupplicant,
		"-B",
		"-i"+cfg.Interface,
		"-c"+cfg.ConfigPath,
	)
	if err := child.Start(); err != nil {
		return err
	}
	// -B daemonizes: this process forks into the background and the
	// child we started exits almost immediately. Reap it so it doesn't
	// linger as a zombie.
	go child.Wait()
	return nil
}

func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if aputil.FileExists(path) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("socket %s did not appear within %s", path, timeout)
}
