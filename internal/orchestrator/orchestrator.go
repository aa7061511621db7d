// Package orchestrator is the top-level state machine: it sequences the
// startup sanitizer, the scan engine, the AP controller, and the HTTP
// control surface, then hands connect requests off to the STA connector.
package orchestrator

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"provisiond/internal/ap"
	"provisiond/internal/assets"
	"provisiond/internal/audio"
	"provisiond/internal/config"
	"provisiond/internal/httpapi"
	"provisiond/internal/model"
	"provisiond/internal/sanitize"
	"provisiond/internal/scan"
	"provisiond/internal/station"
)

const scanAttempts = 3

// Orchestrator owns the process's entire lifetime from sanitization
// through either a successful exit (handled inside the STA connector) or
// continued HTTP service after a failed commit.
type Orchestrator struct {
	cfg      *config.ApConfig
	audioCfg *config.AudioConfig
	diagAddr string
	log      *zap.SugaredLogger
}

// New returns an Orchestrator for the given configuration. diagAddr is the
// loopback address the Prometheus /metrics handler is served on; it never
// faces the AP's gateway interface the way httpapi's captive-portal surface
// does.
func New(cfg *config.ApConfig, audioCfg *config.AudioConfig, diagAddr string, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{cfg: cfg, audioCfg: audioCfg, diagAddr: diagAddr, log: log}
}

// Run executes the linear startup sequence and then blocks serving HTTP.
// It returns an error on a fatal startup failure and nil once SIGINT or
// SIGTERM arrives; a successful commit exits the process from inside the
// STA connector instead of returning here.
func (o *Orchestrator) Run() error {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(o.diagAddr, nil); err != nil {
			o.log.Warnf("diag listener on %s: %v", o.diagAddr, err)
		}
	}()

	client, err := sanitize.Run(o.cfg, o.log)
	if err != nil {
		return fmt.Errorf("sanitizing host: %w", err)
	}

	networks, err := scan.New(client, o.log).SetupAndScan(scanAttempts)
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	o.log.Infof("initial scan found %d networks", len(networks))

	apCtrl := ap.New(o.cfg, client, o.log)
	if err := apCtrl.BringUp(); err != nil {
		return fmt.Errorf("bringing up AP: %w", err)
	}

	notifier := o.buildNotifier()
	notifier.Play(audio.ApStarted)

	connector := station.New(o.cfg, client, apCtrl, notifier, o.log)

	onConnect := func(req model.ConnectionRequest) {
		if err := connector.Commit(req); err != nil {
			o.log.Warnf("commit failed: %v", err)
		}
	}

	httpSrv := httpapi.New(o.cfg.BindAddr(), networks, onConnect, assets.Embedded{}, o.log)
	if err := httpSrv.Start(); err != nil {
		return fmt.Errorf("starting httpd: %w", err)
	}

	o.waitForSignal()
	return nil
}

func (o *Orchestrator) buildNotifier() audio.Notifier {
	if o.audioCfg == nil || !o.audioCfg.Enabled {
		return audio.Noop{}
	}
	return audio.New(o.audioCfg, assets.Embedded{}, o.log)
}

func (o *Orchestrator) waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	o.log.Infof("received termination signal, exiting")
}
