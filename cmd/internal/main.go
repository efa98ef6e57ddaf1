// Command internal is the one-shot service-controls client: it mutates a
// car's shared state block directly to simulate an operator action.
package main

import (
	"fmt"
	"os"

	"github.com/mukuyev/elevator-control/internal/domain"
	"github.com/mukuyev/elevator-control/internal/shm"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) != 3 {
		fmt.Println("Incorrect number of command line args.")
		return 1
	}
	name, op := args[1], args[2]

	block, err := shm.Attach(shm.Name(name))
	if err != nil {
		fmt.Printf("Unable to access car %s.\n", name)
		return 1
	}
	defer block.Detach()

	switch op {
	case "open":
		block.Mutate(func(s *shm.Snapshot) { s.OpenButton = true })
	case "close":
		block.Mutate(func(s *shm.Snapshot) { s.CloseButton = true })
	case "stop":
		block.Mutate(func(s *shm.Snapshot) { s.EmergencyStop = true })
	case "service_on":
		block.Mutate(func(s *shm.Snapshot) { s.IndividualServiceMode = true })
	case "service_off":
		block.Mutate(func(s *shm.Snapshot) { s.IndividualServiceMode = false })
	case "up":
		return moveDestination(block, true)
	case "down":
		return moveDestination(block, false)
	default:
		fmt.Println("Invalid operation.")
		return 1
	}
	return 0
}

// moveDestination implements the up/down operations: both require
// individual service mode, a status of Closed, and the car not currently
// between floors, then step destination_floor by one within the system's
// absolute floor range.
func moveDestination(block *shm.Block, up bool) int {
	snap := block.Observe()
	if !snap.IndividualServiceMode {
		fmt.Println("Operation only allowed in service mode.")
		return 1
	}
	if snap.Status == domain.StatusBetween {
		fmt.Println("Operation not allowed while elevator is moving.")
		return 1
	}
	if snap.Status != domain.StatusClosed {
		fmt.Println("Operation not allowed while doors are open.")
		return 1
	}

	block.Mutate(func(s *shm.Snapshot) {
		if up {
			s.DestinationFloor = s.DestinationFloor.Increment()
		} else {
			s.DestinationFloor = s.DestinationFloor.Decrement()
		}
	})
	return 0
}
