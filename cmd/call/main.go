// Command call is the one-shot call-pad client: it asks the controller for
// a ride between two floors and prints the result.
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/mukuyev/elevator-control/internal/constants"
	"github.com/mukuyev/elevator-control/internal/domain"
	"github.com/mukuyev/elevator-control/internal/wire"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) != 3 {
		fmt.Println("Invalid floor(s) specified.")
		return 1
	}

	src, errSrc := domain.NewFloorWithValidation(args[1])
	dst, errDst := domain.NewFloorWithValidation(args[2])
	if errSrc != nil || errDst != nil {
		fmt.Println("Invalid floor(s) specified.")
		return 1
	}
	if src.IsEqual(dst) {
		fmt.Println("You are already on that floor!")
		return 0
	}

	addr := fmt.Sprintf("%s:%d", constants.ControllerAddress, constants.ControllerPort)
	conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
	if err != nil {
		fmt.Println("Unable to connect to elevator system.")
		return 1
	}
	defer conn.Close()

	if err := wire.SendFrame(conn, wire.Join("CALL", src.String(), dst.String())); err != nil {
		fmt.Println("Unable to connect to elevator system.")
		return 1
	}

	response, err := wire.ReceiveFrame(conn)
	if err != nil {
		fmt.Println("Unable to connect to elevator system.")
		return 1
	}

	fields := wire.Fields(response)
	if len(fields) == 2 && fields[0] == "CAR" {
		fmt.Printf("Car %s is arriving.\n", fields[1])
		return 0
	}

	fmt.Println("Sorry, no car is available to take this request.")
	return 0
}
