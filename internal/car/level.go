package car

import (
	"context"

	"github.com/mukuyev/elevator-control/internal/domain"
	"github.com/mukuyev/elevator-control/internal/shm"
)

// levelWorker waits on the shared block for a destination change. If the
// destination is out of the car's serviceable range it is snapped back to
// the nearest limit and the move is abandoned; otherwise the worker steps
// the car one floor at a time, at one floor per delay, until it arrives,
// then cycles the doors once unless the car is in individual service mode.
func (c *Car) levelWorker(ctx context.Context) {
	defer c.wg.Done()

	var lastGen uint64
	for {
		snap, gen, err := c.block.WaitForChange(ctx, lastGen, c.cfg.ShmPollInterval)
		if err != nil {
			return
		}
		lastGen = gen

		if snap.EmergencyMode || snap.CurrentFloor.IsEqual(snap.DestinationFloor) {
			continue
		}

		if snap.DestinationFloor.IsBelow(c.minFloor) {
			c.block.Mutate(func(s *shm.Snapshot) {
				s.DestinationFloor = c.minFloor
				s.Status = domain.StatusClosed
			})
			lastGen = c.block.Generation()
			continue
		}
		if snap.DestinationFloor.IsAbove(c.maxFloor) {
			c.block.Mutate(func(s *shm.Snapshot) {
				s.DestinationFloor = c.maxFloor
				s.Status = domain.StatusClosed
			})
			lastGen = c.block.Generation()
			continue
		}

		if !c.travelToDestination(ctx) {
			return
		}
		lastGen = c.block.Generation()

		if !c.block.Observe().IndividualServiceMode {
			c.runDoorCycle(ctx)
		}
		lastGen = c.block.Generation()
	}
}

// travelToDestination steps the car one floor per delay until its current
// floor matches its destination, reporting false if ctx was cancelled
// mid-travel.
func (c *Car) travelToDestination(ctx context.Context) bool {
	c.block.Mutate(func(s *shm.Snapshot) { s.Status = domain.StatusBetween })

	for {
		if !c.sleepInterruptible(ctx, c.delay) {
			return false
		}

		var arrived bool
		c.block.Mutate(func(s *shm.Snapshot) {
			switch {
			case s.CurrentFloor.IsBelow(s.DestinationFloor):
				s.CurrentFloor = s.CurrentFloor.Increment()
			case s.CurrentFloor.IsAbove(s.DestinationFloor):
				s.CurrentFloor = s.CurrentFloor.Decrement()
			}
			arrived = s.CurrentFloor.IsEqual(s.DestinationFloor)
			if arrived {
				s.Status = domain.StatusClosed
			}
		})
		if arrived {
			return true
		}
	}
}
