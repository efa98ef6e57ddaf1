// Command car runs one elevator cab's agent: shared state block, door and
// level workers, and the controller liaison.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mukuyev/elevator-control/internal/car"
	"github.com/mukuyev/elevator-control/internal/domain"
	"github.com/mukuyev/elevator-control/internal/infra/config"
	"github.com/mukuyev/elevator-control/internal/infra/logging"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) != 5 {
		fmt.Println("Usage: car NAME LOW HIGH DELAY_MS")
		return 1
	}

	name := args[1]
	low, errLow := domain.NewFloorWithValidation(args[2])
	high, errHigh := domain.NewFloorWithValidation(args[3])
	delayMs, errDelay := strconv.Atoi(args[4])
	if errLow != nil || errHigh != nil || errDelay != nil || delayMs <= 0 {
		fmt.Println("Invalid floor(s) specified.")
		return 1
	}

	cfg, err := config.InitCarConfig()
	if err != nil {
		slog.Error("failed to initialize configuration", slog.String("error", err.Error()))
		return 1
	}
	logging.InitLogger(cfg.LogLevel)

	c, err := car.New(name, low, high, time.Duration(delayMs)*time.Millisecond, cfg)
	if err != nil {
		fmt.Println("Invalid floor(s) specified.")
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("car received shutdown signal", slog.String("car_name", name))
		cancel()
	}()

	if err := c.Run(ctx); err != nil {
		slog.Error("car terminated with error", slog.String("error", err.Error()))
		return 1
	}
	return 0
}
