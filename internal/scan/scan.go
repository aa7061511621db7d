// Package scan drives the supplicant through a scan and turns its reply
// into the Network list the HTTP layer hands to clients.
package scan

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"provisiond/internal/metrics"
	"provisiond/internal/model"
	"provisiond/internal/supplicant"
)

// ErrNoScanResults is returned by SetupAndScan when every attempt yields
// an empty network list.
var ErrNoScanResults = errors.New("no scan results after retries")

// scanWait is how long the Engine sleeps after issuing SCAN before asking
// for SCAN_RESULTS. Event-driven waiting was considered and rejected:
// cross-vendor scan-complete event semantics are not reliable enough to
// build a state machine on.
const scanWait = 10 * time.Second

// Engine issues scans against a supplicant client and parses the results.
type Engine struct {
	client *supplicant.Client
	log    *zap.SugaredLogger
	wait   time.Duration
}

// New returns an Engine bound to client.
func New(client *supplicant.Client, log *zap.SugaredLogger) *Engine {
	return &Engine{client: client, log: log, wait: scanWait}
}

// Scan performs one SCAN/sleep/SCAN_RESULTS cycle.
func (e *Engine) Scan() ([]model.Network, error) {
	if err := e.client.Scan(); err != nil {
		return nil, err
	}

	time.Sleep(e.wait)

	body, err := e.client.ScanResults()
	if err != nil {
		return nil, err
	}

	return parseScanResults(body), nil
}

// SetupAndScan retries Scan up to attempts times, returning the first
// non-empty result. If every attempt comes back empty, it returns
// ErrNoScanResults.
func (e *Engine) SetupAndScan(attempts int) ([]model.Network, error) {
	var last error
	for i := 0; i < attempts; i++ {
		networks, err := e.Scan()
		if err != nil {
			last = err
			metrics.ScanAttempts.WithLabelValues("error").Inc()
			if e.log != nil {
				e.log.Warnf("scan attempt %d/%d failed: %v", i+1, attempts, err)
			}
			continue
		}
		if len(networks) > 0 {
			metrics.ScanAttempts.WithLabelValues("success").Inc()
			return networks, nil
		}
		metrics.ScanAttempts.WithLabelValues("empty").Inc()
		if e.log != nil {
			e.log.Warnf("scan attempt %d/%d returned no results", i+1, attempts)
		}
	}
	if last != nil {
		return nil, last
	}
	return nil, ErrNoScanResults
}

// parseScanResults turns the tab-separated SCAN_RESULTS body into Networks,
// skipping the header line and any row with an empty SSID.
func parseScanResults(body string) []model.Network {
	var networks []model.Network

	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	for i, line := range lines {
		if i == 0 {
			// header: "bssid / frequency / signal level / flags / ssid"
			continue
		}
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 5 {
			continue
		}

		ssid := supplicant.UnescapeSSID(fields[4])
		if ssid == "" {
			continue
		}

		dbm, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}

		networks = append(networks, model.Network{
			SSID:     ssid,
			Signal:   SignalToPercent(dbm),
			Security: classifySecurity(fields[3]),
		})
	}

	return networks
}

// SignalToPercent clamps a dBm reading to [-100,-50] and linearly rescales
// it to [0,100].
func SignalToPercent(dbm int) int {
	if dbm < -100 {
		dbm = -100
	} else if dbm > -50 {
		dbm = -50
	}
	return (dbm + 100) * 2
}

func classifySecurity(flags string) string {
	switch {
	case strings.Contains(flags, "WPA2"):
		return model.SecurityWPA2
	case strings.Contains(flags, "WPA"):
		return model.SecurityWPA
	default:
		return model.SecurityOpen
	}
}
