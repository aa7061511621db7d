/*
 * provisiond brings up a self-hosted Wi-Fi AP, serves a captive-portal API
 * for choosing a nearby network, and associates as a station once the user
 * submits credentials.
 */
package main

import (
	"flag"
	"os"

	"provisiond/internal/aputil"
	"provisiond/internal/config"
	"provisiond/internal/orchestrator"
)

const pname = "provisiond"

var (
	configPath = flag.String("config", "/etc/provisiond/provisiond.toml",
		"path to the TOML configuration file")
	logLevel = flag.String("log-level", "info",
		"log level: debug, info, warn, error")
	diagAddr = flag.String("promhttp-address", "127.0.0.1:6543",
		"loopback address to serve /metrics on")
)

func main() {
	flag.Parse()

	slog := aputil.NewLogger(pname)
	defer slog.Sync()

	if err := aputil.SetLevel(*logLevel); err != nil {
		slog.Warnf("invalid -log-level %q: %v", *logLevel, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Fatalf("loading config: %v", err)
	}

	orch := orchestrator.New(&cfg.AP, &cfg.Audio, *diagAddr, slog)
	if err := orch.Run(); err != nil {
		slog.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}
