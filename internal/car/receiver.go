package car

import (
	"context"
	"log/slog"
	"net"

	"github.com/mukuyev/elevator-control/internal/domain"
	"github.com/mukuyev/elevator-control/internal/shm"
	"github.com/mukuyev/elevator-control/internal/wire"
)

// receiverWorker reads dispatch frames from the controller and applies them
// to the shared block. The only frame the controller sends a car is
// "FLOOR f", naming the next stop. If f is already the car's destination
// (the car is already there, or already en route), the doors are cycled in
// place by pressing the virtual open button rather than re-triggering a
// move; otherwise the destination is updated and the level worker picks it
// up on its next wake. A read error or closed connection ends the
// connection's worker pair so the main liaison can reconnect.
func (c *Car) receiverWorker(ctx context.Context, cancel context.CancelFunc, conn net.Conn) {
	defer c.wg.Done()
	defer cancel()
	defer c.clearConn(conn)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		payload, err := wire.ReceiveFrame(conn)
		if err != nil {
			c.logger.Warn("controller connection closed", slog.String("error", err.Error()))
			return
		}

		fields := wire.Fields(payload)
		if len(fields) != 2 || fields[0] != "FLOOR" {
			c.logger.Warn("ignoring malformed frame from controller", slog.String("payload", payload))
			continue
		}

		floor, err := domain.ParseFloor(fields[1])
		if err != nil {
			c.logger.Warn("ignoring frame with invalid floor", slog.String("payload", payload))
			continue
		}

		if floor.IsEqual(c.block.Observe().DestinationFloor) {
			c.block.Mutate(func(s *shm.Snapshot) { s.OpenButton = true })
			continue
		}
		c.block.Mutate(func(s *shm.Snapshot) {
			s.DestinationFloor = floor
		})
	}
}
