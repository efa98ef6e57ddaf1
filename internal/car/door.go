package car

import (
	"context"
	"time"

	"github.com/mukuyev/elevator-control/internal/domain"
	"github.com/mukuyev/elevator-control/internal/shm"
)

// doorWorker waits on the shared block for a button press and drives the
// door's Opening -> Open -> Closing -> Closed cycle, or a bare Closing ->
// Closed sweep when only the close button was pressed. Doors never cycle
// while the car is Between floors.
func (c *Car) doorWorker(ctx context.Context) {
	defer c.wg.Done()

	var lastGen uint64
	for {
		snap, gen, err := c.block.WaitForChange(ctx, lastGen, c.cfg.ShmPollInterval)
		if err != nil {
			return
		}
		lastGen = gen

		if snap.Status == domain.StatusBetween {
			continue
		}
		switch {
		case snap.OpenButton:
			c.block.Mutate(func(s *shm.Snapshot) { s.OpenButton = false })
			c.runDoorCycle(ctx)
		case snap.CloseButton && snap.Status != domain.StatusClosed:
			c.block.Mutate(func(s *shm.Snapshot) { s.CloseButton = false })
			c.closeSweep(ctx)
		}
	}
}

// runDoorCycle takes the doors from their current position through
// Opening, a dwell at Open that a button press can cut short, and on to
// Closing, unless individual service mode is in effect, in which case the
// doors are left open. A door obstruction observed during the close sweep is
// handled by the safety monitor forcing status back to Opening; this worker
// notices that and restarts the dwell instead of declaring the doors Closed.
func (c *Car) runDoorCycle(ctx context.Context) {
	c.block.Mutate(func(s *shm.Snapshot) { s.Status = domain.StatusOpening })
	if !c.sleepInterruptible(ctx, c.delay) {
		return
	}

	for {
		c.block.Mutate(func(s *shm.Snapshot) { s.Status = domain.StatusOpen })
		c.dwellOpen(ctx)

		if c.block.Observe().IndividualServiceMode {
			return
		}

		completed := c.closeSweep(ctx)
		if ctx.Err() != nil {
			return
		}
		if !completed || c.block.Observe().Status == domain.StatusOpening {
			continue
		}
		return
	}
}

// closeSweep runs Closing -> wait delay -> Closed, unless the safety monitor
// forces status back to Opening mid-sweep (a door obstruction), in which
// case it leaves status as Opening and reports the sweep as not completed.
func (c *Car) closeSweep(ctx context.Context) bool {
	c.block.Mutate(func(s *shm.Snapshot) { s.Status = domain.StatusClosing })
	if !c.sleepInterruptible(ctx, c.delay) {
		return false
	}
	if c.block.Observe().Status == domain.StatusOpening {
		return false
	}
	c.block.Mutate(func(s *shm.Snapshot) {
		if s.Status == domain.StatusClosing {
			s.Status = domain.StatusClosed
		}
	})
	return true
}

// dwellOpen holds the doors open for one delay interval, returning early if
// either button is pressed again.
func (c *Car) dwellOpen(ctx context.Context) {
	deadline := time.NewTimer(c.delay)
	defer deadline.Stop()
	poll := time.NewTicker(c.cfg.ShmPollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-poll.C:
			snap := c.block.Observe()
			if snap.OpenButton || snap.CloseButton {
				return
			}
		}
	}
}

func (c *Car) sleepInterruptible(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
