package sanitize

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"provisiond/internal/aputil"
)

func isAlive(pid int) bool {
	_, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
	return err == nil
}

// binaryName returns the base name of the executable backing pid, e.g.
// "wpa_supplicant" for /sbin/wpa_supplicant.
func binaryName(pid int) (string, error) {
	link := fmt.Sprintf("/proc/%d/exe", pid)
	name, err := os.Readlink(link)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", link, err)
	}
	if idx := strings.Index(name, " ("); idx > 0 {
		name = name[:idx]
	}
	return filepath.Base(name), nil
}

func pidsFor(names []string) map[int]string {
	inSet := make(map[string]bool, len(names))
	for _, n := range names {
		inSet[n] = true
	}

	f, err := os.Open("/proc")
	if err != nil {
		return nil
	}
	defer f.Close()

	entries, err := f.Readdirnames(0)
	if err != nil {
		return nil
	}

	pids := make(map[int]string)
	for _, name := range entries {
		pid, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		binary, err := binaryName(pid)
		if err == nil && inSet[binary] {
			pids[pid] = binary
		}
	}
	return pids
}

// killAll sends SIGKILL to every live process running one of the named
// binaries and waits for each to disappear.
func killAll(log *zap.SugaredLogger, names []string) {
	for pid, binary := range pidsFor(names) {
		log.Infof("sanitizer: killing pid %d (%s)", pid, binary)

		p, err := os.FindProcess(pid)
		if err != nil {
			continue
		}

		kill := func(sig syscall.Signal) error { return p.Signal(sig) }
		alive := func() bool { return isAlive(pid) }
		aputil.RetryKill(kill, alive, time.Second)
	}
}
