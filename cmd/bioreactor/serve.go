package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/broadcast"
	"github.com/profilgusto/sim-biorreator/internal/config"
	"github.com/profilgusto/sim-biorreator/internal/httpserver"
	"github.com/profilgusto/sim-biorreator/internal/logging"
	"github.com/profilgusto/sim-biorreator/internal/mqtt"
	"github.com/profilgusto/sim-biorreator/internal/sim"
	"github.com/profilgusto/sim-biorreator/internal/telemetry"
	"github.com/profilgusto/sim-biorreator/internal/tui"
)

const maxLiveClients = 64

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Simulator starting",
		"seed", cfg.Seed,
		"tick", cfg.Tick(),
		"time_scale", cfg.TimeScale,
		"mqtt", bool(cfg.MQTTEnabled),
		"ui", bool(cfg.UIEnabled))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	reg := telemetry.NewRegistry()
	simMetrics := telemetry.NewSimMetrics(reg)
	httpMetrics := telemetry.NewHTTPMetrics(reg)

	s := sim.New(bioreactor.New(cfg.Seed), cfg.Seed, cfg.TimeScale, sim.WithCommandHook(simMetrics.ObserveCommand))

	publishers := []sim.Publisher{simMetrics}

	if cfg.MQTTEnabled {
		bridge := mqtt.NewBridge(mqtt.Options{
			BrokerURL: cfg.BrokerURL(),
			ClientID:  cfg.MQTTClientID,
			TopicRoot: cfg.MQTTTopicRoot,
		}, s)
		bridge.OnPublishFailure(simMetrics.PublishFailed)

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := bridge.Connect(connectCtx)
		cancel()
		if err != nil {
			logging.WithError(err).Warn("Broker not reachable yet, retrying in background", "broker", cfg.BrokerURL())
		}
		defer bridge.Close()

		publishers = append(publishers, bridge)
	}

	// pass nil explicitly to avoid a typed-nil interface
	var (
		srv         *httpserver.Server
		broadcaster *broadcast.Broadcaster
	)
	opts := httpserver.Options{
		Addr:       cfg.UIAddr(),
		UIDir:      cfg.UIDir,
		UIEnabled:  bool(cfg.UIEnabled),
		Metrics:    telemetry.Handler(reg),
		Middleware: []echo.MiddlewareFunc{httpMetrics.Middleware()},
	}
	if cfg.UIEnabled {
		broadcaster = broadcast.NewBroadcaster(s, clock, cfg.Tick(), maxLiveClients, broadcast.Hooks{
			OnConnect:    simMetrics.ClientConnected,
			OnDisconnect: simMetrics.ClientDisconnected,
		})
		defer broadcaster.Stop()
		srv = httpserver.NewServer(opts, s, broadcaster)
	} else {
		srv = httpserver.NewServer(opts, s, nil)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	driver := sim.NewDriver(s, clock, cfg.Tick(), publishers...)
	driverDone := make(chan struct{})
	go func() {
		defer close(driverDone)
		driver.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received, cleaning up...")
	case err := <-serverErr:
		if err != nil {
			logging.WithError(err).Error("Server error")
		}
		stop()
	}

	<-driverDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.WithError(err).Error("Server shutdown error")
	}

	slog.Info("Simulator stopped")
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	logOut, closeLog, err := watchLogOutput()
	if err != nil {
		return err
	}
	defer closeLog()
	logging.InitLoggerTo(logOut, os.Getenv("LOG_LEVEL"), "text")

	s := sim.New(bioreactor.New(seed), seed, 1.0)
	if err := tui.Run(s, sim.DefaultTickInterval); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// watchLogOutput keeps log lines off the dashboard. LOG_FILE redirects them
// to a file instead of discarding them.
func watchLogOutput() (io.Writer, func(), error) {
	path := os.Getenv("LOG_FILE")
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
