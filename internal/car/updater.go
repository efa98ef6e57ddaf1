package car

import (
	"context"
	"net"

	"github.com/mukuyev/elevator-control/internal/wire"
)

// updaterWorker watches the shared block for changes and reports them to the
// controller: every status transition is sent as a STATUS frame so the
// controller can re-dispatch a queued stop once the doors start opening, and
// a newly-latched emergency or individual-service condition is reported once
// and then ends the connection, since a car in either mode stops taking
// calls until an operator clears it.
func (c *Car) updaterWorker(ctx context.Context, cancel context.CancelFunc, conn net.Conn) {
	defer c.wg.Done()
	defer cancel()
	defer c.clearConn(conn)

	var lastGen uint64
	wasEmergency := false
	wasService := false

	for {
		snap, gen, err := c.block.WaitForChange(ctx, lastGen, c.cfg.ShmPollInterval)
		if err != nil {
			return
		}
		lastGen = gen

		if err := wire.SendFrame(conn, statusFrame(snap)); err != nil {
			c.logger.Warn("failed to send status to controller")
			return
		}

		if snap.EmergencyMode && !wasEmergency {
			_ = wire.SendFrame(conn, "EMERGENCY")
			c.logger.Warn("reported emergency to controller")
			return
		}
		if snap.IndividualServiceMode && !wasService {
			_ = wire.SendFrame(conn, wire.Join("INDIVIDUAL", "SERVICE"))
			c.logger.Info("reported individual service to controller")
			return
		}
		wasEmergency = snap.EmergencyMode
		wasService = snap.IndividualServiceMode
	}
}
