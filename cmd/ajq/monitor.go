package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benedict-erwin/ajq"
	"github.com/benedict-erwin/ajq/monitor"
)

const monitorShutdownTimeout = 10 * time.Second

func runMonitor(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to ajq config file (required)")
	addr := fs.String("addr", "", "Listen address (overrides monitoring.api.addr)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: ajq monitor --config <file> [--addr <host:port>]

Serve the read-only monitoring HTTP API until interrupted.

Flags:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *configPath == "" {
		fs.Usage()
		return 1
	}

	cfg, err := ajq.LoadConfigFile(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "ajq: %v\n", err)
		return 1
	}
	logger := newLogger(stderr, cfg.App.LogLevel)
	if !cfg.Monitoring.API.Enabled {
		logger.Warn("monitoring.api.enabled is false in config; serving anyway")
	}
	if !cfg.Monitoring.Auth.Enabled {
		logger.Warn("monitor auth is disabled; the API is open to anyone who can reach it")
	}

	rc := ajq.NewRedisClient(cfg.RedisOptions()...)
	defer rc.Close()

	mcfg := monitor.ConfigFrom(cfg)
	if *addr != "" {
		mcfg.APIAddr = *addr
	}
	m := monitor.New(rc, logger, mcfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- m.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(stderr, "ajq: %v\n", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), monitorShutdownTimeout)
	defer cancel()
	if err := m.Stop(shutdownCtx); err != nil {
		fmt.Fprintf(stderr, "ajq: stopping monitor: %v\n", err)
		return 1
	}
	if err := <-errCh; err != nil {
		fmt.Fprintf(stderr, "ajq: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "monitor stopped")
	return 0
}
