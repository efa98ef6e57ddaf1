// Package car implements the car agent: four workers cooperating over a
// shared state block and one connection to the controller.
package car

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/mukuyev/elevator-control/internal/constants"
	"github.com/mukuyev/elevator-control/internal/domain"
	"github.com/mukuyev/elevator-control/internal/infra/config"
	"github.com/mukuyev/elevator-control/internal/shm"
	"github.com/mukuyev/elevator-control/internal/wire"
)

// Car is one elevator cab: a name, a serviceable floor range, a shared state
// block, and a liaison to the controller.
type Car struct {
	name     string
	minFloor domain.Floor
	maxFloor domain.Floor
	delay    time.Duration
	cfg      *config.CarConfig
	logger   *slog.Logger

	block *shm.Block

	connMu sync.Mutex
	conn   net.Conn

	wg sync.WaitGroup
}

// New validates its arguments and returns a Car ready to Run.
func New(name string, minFloor, maxFloor domain.Floor, delay time.Duration, cfg *config.CarConfig) (*Car, error) {
	if name == "" {
		return nil, domain.ErrCarNameEmpty
	}
	if err := config.ValidateFloorBounds(minFloor, maxFloor); err != nil {
		return nil, err
	}
	if delay <= 0 {
		return nil, domain.NewValidationError("floor delay must be positive", nil).
			WithContext("delay", delay)
	}

	logger := slog.With(
		slog.String("component", constants.ComponentCar),
		slog.String("car_name", name),
	)

	return &Car{
		name:     name,
		minFloor: minFloor,
		maxFloor: maxFloor,
		delay:    delay,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Run creates the car's shared state block, starts the door and level
// workers, and runs the main liaison loop until ctx is cancelled. On return
// the shared state block has been destroyed.
func (c *Car) Run(ctx context.Context) error {
	block, err := shm.Create(shm.Name(c.name))
	if err != nil {
		return err
	}
	c.block = block
	defer c.block.Destroy()

	c.logger.Info("car started",
		slog.Int("min_floor", c.minFloor.Value()),
		slog.Int("max_floor", c.maxFloor.Value()),
		slog.Duration("floor_delay", c.delay))

	c.wg.Add(2)
	go c.doorWorker(ctx)
	go c.levelWorker(ctx)

	c.mainLiaison(ctx)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	c.logger.Info("car stopped")
	return nil
}

// mainLiaison implements spec.md §4.4's main liaison: while the process has
// not been asked to stop, reconnect to the controller whenever the car is
// neither in emergency nor individual service mode and is not currently
// connected, announce itself, and spin up the receiver and updater workers
// for the lifetime of that connection.
func (c *Car) mainLiaison(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		snap := c.block.Observe()
		if !snap.EmergencyMode && !snap.IndividualServiceMode && !c.connected() {
			c.connectAndServe(ctx)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.delay):
		}
	}
}

func (c *Car) connectAndServe(ctx context.Context) {
	addr := fmt.Sprintf("%s:%d", c.cfg.ControllerAddress, c.cfg.ControllerPort)
	conn, err := net.DialTimeout("tcp", addr, c.cfg.DialTimeout)
	if err != nil {
		c.logger.Warn("failed to connect to controller", slog.String("error", err.Error()))
		return
	}

	snap := c.block.Observe()
	registration := wire.Join("CAR", c.name, c.minFloor.String(), c.maxFloor.String())
	if err := wire.SendFrame(conn, registration); err != nil {
		c.logger.Warn("failed to send registration", slog.String("error", err.Error()))
		conn.Close()
		return
	}
	if err := wire.SendFrame(conn, statusFrame(snap)); err != nil {
		c.logger.Warn("failed to send initial status", slog.String("error", err.Error()))
		conn.Close()
		return
	}

	connCtx, connCancel := context.WithCancel(ctx)
	c.setConn(conn)
	c.logger.Info("connected to controller")

	c.wg.Add(2)
	go c.receiverWorker(connCtx, connCancel, conn)
	go c.updaterWorker(connCtx, connCancel, conn)
}

func (c *Car) connected() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn != nil
}

func (c *Car) setConn(conn net.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

func (c *Car) clearConn(conn net.Conn) {
	c.connMu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connMu.Unlock()
	conn.Close()
}

func statusFrame(s shm.Snapshot) string {
	return wire.Join("STATUS", string(s.Status), s.CurrentFloor.String(), s.DestinationFloor.String())
}
