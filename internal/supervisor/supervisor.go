// Package supervisor owns at-most-one child process per supervised role.
// Spawning into an occupied slot kills the previous child first, and Kill
// stops the current one; a Handle that is simply discarded does not kill
// its child.
// The daemon uses it for exactly one role: the DHCP/DNS-hijack sidecar
// spawned while the AP is up.
package supervisor

import (
	"sync"

	"go.uber.org/zap"

	"provisiond/internal/aputil"
)

// Handle supervises one subprocess slot.
type Handle struct {
	mu    sync.Mutex
	child *aputil.Child
	log   *zap.SugaredLogger
}

// New returns an empty Handle.
func New(log *zap.SugaredLogger) *Handle {
	return &Handle{log: log}
}

// Spawn kills whatever child currently occupies the slot, then starts a
// new one in its place.
func (h *Handle) Spawn(execpath string, args ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.child != nil {
		h.child.Kill()
		h.child.Wait()
		h.child = nil
	}

	child := aputil.NewChild(h.log, execpath, args...)
	child.LogOutputTo(execpath + ": ")
	if err := child.Start(); err != nil {
		return err
	}

	h.child = child
	go func() {
		if err := child.Wait(); err != nil {
			h.log.Warnf("%s exited: %v", execpath, err)
		}
	}()

	return nil
}

// Kill stops the owned child, if any, and clears the slot. Safe to call
// when nothing is owned.
func (h *Handle) Kill() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.child == nil {
		return
	}
	h.child.Kill()
	h.child = nil
}

// Owned reports whether a child currently occupies the slot.
func (h *Handle) Owned() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.child != nil
}
