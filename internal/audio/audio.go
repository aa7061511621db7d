// Package audio plays short audio cues on named provisioning events. It is
// an optional capability: when disabled, a no-op Notifier is used so call
// sites never need to branch on whether audio is configured.
package audio

import (
	"bytes"
	"os/exec"

	"go.uber.org/zap"

	"provisiond/internal/assets"
	"provisiond/internal/config"
)

// Event names a point in the provisioning flow a cue can be attached to.
type Event string

const (
	ApStarted          Event = "ap_started"
	ConnectionStarted  Event = "connection_started"
	ConnectionSuccess  Event = "connection_success"
	ConnectionFailed   Event = "connection_failed"
)

// Notifier plays a cue for an event. Play must never block its caller.
type Notifier interface {
	Play(event Event)
}

// Noop is used whenever audio is disabled in configuration.
type Noop struct{}

// Play does nothing.
func (Noop) Play(Event) {}

// Aplay pipes an embedded audio asset into the system `aplay` player on a
// detached goroutine, the way the original provisioner's notifier pipes
// bytes into the player's stdin rather than writing a temp file first.
type Aplay struct {
	device   string
	assetFor map[Event]string
	provider assets.Provider
	log      *zap.SugaredLogger
}

// New builds an Aplay notifier from AudioConfig. provider resolves the
// configured asset filenames to bytes.
func New(cfg *config.AudioConfig, provider assets.Provider, log *zap.SugaredLogger) *Aplay {
	assetFor := make(map[Event]string, len(cfg.Events))
	for k, v := range cfg.Events {
		assetFor[Event(k)] = v
	}
	return &Aplay{
		device:   cfg.Device,
		assetFor: assetFor,
		provider: provider,
		log:      log,
	}
}

// Play spawns a detached goroutine that pipes the asset for event into
// aplay. It never blocks and never surfaces an error to the caller;
// playback failures are only logged.
func (a *Aplay) Play(event Event) {
	filename, ok := a.assetFor[event]
	if !ok {
		return
	}

	go func() {
		data, _, err := a.provider.GetAsset("sounds/" + filename)
		if err != nil {
			a.log.Warnf("audio: loading %s: %v", filename, err)
			return
		}

		args := []string{}
		if a.device != "" && a.device != "auto" {
			args = append(args, "-D", a.device)
		}

		cmd := exec.Command("aplay", args...)
		cmd.Stdin = bytes.NewReader(data)

		if err := cmd.Run(); err != nil {
			a.log.Warnf("audio: playing %s: %v", filename, err)
		}
	}()
}
