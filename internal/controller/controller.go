// Package controller implements the central dispatcher: a single-threaded,
// event-driven process that accepts car registrations and call-pad requests
// over the framed-message transport and schedules stops per car.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/mukuyev/elevator-control/internal/constants"
	httpstatus "github.com/mukuyev/elevator-control/internal/http"
	"github.com/mukuyev/elevator-control/internal/infra/config"
	"github.com/mukuyev/elevator-control/internal/metrics"
	"github.com/mukuyev/elevator-control/internal/wire"
)

// StatusBroadcaster receives every car registration, status, and dispatch
// transition the controller observes. The websocket status feed implements
// it; tests and a controller run without one can leave it nil.
type StatusBroadcaster interface {
	Publish(status httpstatus.CarStatus)
}

// Controller is the dispatcher process: one listening socket, a bounded
// registry of cars, and one goroutine that owns every mutation of that
// registry and every write to a registered car's connection.
type Controller struct {
	cfg    *config.ControllerConfig
	logger *slog.Logger

	events      chan event
	broadcaster StatusBroadcaster
}

// New returns a Controller ready to Run.
func New(cfg *config.ControllerConfig) *Controller {
	return &Controller{
		cfg:    cfg,
		logger: slog.With(slog.String("component", constants.ComponentController)),
		events: make(chan event, 64),
	}
}

// SetBroadcaster attaches the status feed the dispatch goroutine publishes
// every transition to. It must be called before Run.
func (c *Controller) SetBroadcaster(b StatusBroadcaster) {
	c.broadcaster = b
}

// Run listens for connections and drives the dispatch loop until ctx is
// cancelled.
func (c *Controller) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", c.cfg.ListenAddress, c.cfg.ListenPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	defer ln.Close()

	c.logger.Info("controller listening", slog.String("address", addr), slog.Int("backlog", c.cfg.Backlog))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.dispatchLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.acceptLoop(ctx, ln)
	}()

	<-ctx.Done()
	ln.Close()
	wg.Wait()
	c.logger.Info("controller stopped")
	return nil
}

func (c *Controller) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				c.logger.Warn("accept failed", slog.String("error", err.Error()))
				return
			}
		}
		go c.serveConn(ctx, conn)
	}
}

// serveConn reads the first frame off a freshly accepted connection to
// decide whether it is a one-shot call-pad request or a persistent car
// registration, then forwards frames to the dispatch goroutine for as long
// as the connection stays open. Only the dispatch goroutine ever writes to
// conn; this goroutine only reads and enqueues events.
func (c *Controller) serveConn(ctx context.Context, conn net.Conn) {
	payload, err := wire.ReceiveFrame(conn)
	if err != nil {
		conn.Close()
		return
	}
	fields := wire.Fields(payload)
	if len(fields) == 0 {
		conn.Close()
		return
	}

	switch fields[0] {
	case "CALL":
		c.handleCall(conn, fields)
	case "CAR":
		c.handleCarRegistration(ctx, conn, fields)
	default:
		conn.Close()
	}
}

// publish forwards status to the attached broadcaster, if any. It is a
// no-op when no websocket feed is configured.
func (c *Controller) publish(status httpstatus.CarStatus) {
	if c.broadcaster != nil {
		c.broadcaster.Publish(status)
	}
}

func (c *Controller) setRegistrySnapshot(regs []*registration) {
	metrics.SetRegisteredCars(len(regs))
}
