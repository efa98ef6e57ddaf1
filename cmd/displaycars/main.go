// Command displaycars is a text diagnostic that scans /dev/shm for every
// registered car's shared block and prints a one-line status row for each,
// refreshing on an interval. It is the CLI analogue of the controller's
// websocket status feed: a plain data dump, not a graphical display.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mukuyev/elevator-control/internal/shm"
)

const scanInterval = 500 * time.Millisecond

func main() {
	for {
		names, err := scanCarNames()
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to scan /dev/shm:", err)
			os.Exit(1)
		}

		printTable(names)
		time.Sleep(scanInterval)
	}
}

// scanCarNames lists every car's shared-memory name currently present under
// /dev/shm, sorted alphabetically to match the original's insertion order.
func scanCarNames() ([]string, error) {
	entries, err := os.ReadDir("/dev/shm")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "car") || strings.HasSuffix(e.Name(), ".lock") {
			continue
		}
		names = append(names, strings.TrimPrefix(e.Name(), "car"))
	}
	sort.Strings(names)
	return names, nil
}

func printTable(names []string) {
	fmt.Println("NAME\tSTATUS\tCURRENT\tDEST\tSERVICE\tEMERGENCY")
	for _, name := range names {
		block, err := shm.Attach(shm.Name(name))
		if err != nil {
			continue
		}
		snap := block.Observe()
		fmt.Printf("%s\t%s\t%s\t%s\t%v\t%v\n",
			name, snap.Status, snap.CurrentFloor, snap.DestinationFloor,
			snap.IndividualServiceMode, snap.EmergencyMode)
		block.Detach()
	}
}
