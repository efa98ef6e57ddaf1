// Command controller runs the central dispatcher: the listening socket, the
// per-car registry, and (optionally) the metrics and websocket status side
// listeners.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mukuyev/elevator-control/internal/controller"
	httpstatus "github.com/mukuyev/elevator-control/internal/http"
	"github.com/mukuyev/elevator-control/internal/infra/config"
	"github.com/mukuyev/elevator-control/internal/infra/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.InitControllerConfig()
	if err != nil {
		slog.Error("failed to initialize configuration", slog.String("error", err.Error()))
		return 1
	}
	logging.InitLogger(cfg.LogLevel)

	ctrl := controller.New(cfg)

	var wg sync.WaitGroup
	var metricsServer *httpstatus.MetricsServer
	var wsServer *httpstatus.WebSocketServer

	if cfg.MetricsEnabled {
		metricsServer = httpstatus.NewMetricsServer(cfg.MetricsAddress,
			slog.With(slog.String("component", "metrics-server")))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metricsServer.Start(); err != nil {
				slog.Warn("metrics server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	if cfg.WebSocketEnabled {
		wsServer = httpstatus.NewWebSocketServer(cfg.WebSocketAddress, cfg.WebSocketPath,
			slog.With(slog.String("component", "websocket-server")))
		ctrl.SetBroadcaster(wsServer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := wsServer.Start(); err != nil {
				slog.Warn("websocket server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("controller received shutdown signal")
		cancel()
	}()

	err = ctrl.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	if wsServer != nil {
		_ = wsServer.Shutdown(shutdownCtx)
	}
	wg.Wait()

	if err != nil {
		slog.Error("controller terminated with error", slog.String("error", err.Error()))
		return 1
	}
	return 0
}
