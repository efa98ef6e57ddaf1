// Command safety runs the independent safety monitor for one car.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mukuyev/elevator-control/internal/infra/config"
	"github.com/mukuyev/elevator-control/internal/infra/logging"
	"github.com/mukuyev/elevator-control/internal/safety"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: safety NAME")
		os.Exit(1)
	}
	name := os.Args[1]

	cfg, err := config.InitSafetyConfig()
	if err != nil {
		slog.Error("failed to initialize configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("safety monitor received shutdown signal")
		cancel()
	}()

	monitor := safety.New(name, cfg)
	if err := monitor.Run(ctx); err != nil {
		fmt.Printf("Unable to access car %s.\n", name)
		os.Exit(1)
	}
}
