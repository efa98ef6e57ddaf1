package controller

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/mukuyev/elevator-control/internal/domain"
	"github.com/mukuyev/elevator-control/internal/infra/config"
	"github.com/mukuyev/elevator-control/internal/wire"
	"github.com/stretchr/testify/require"
)

// testController starts a Controller on an ephemeral loopback port and
// returns it along with its address and a shutdown func.
func testController(t *testing.T) (*Controller, string, func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := &config.ControllerConfig{ListenAddress: host, ListenPort: port, Backlog: 10}
	ctrl := New(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctrl.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, time.Second, 5*time.Millisecond)

	return ctrl, addr, func() {
		cancel()
		<-done
	}
}

// registerCar dials addr, registers a car named name covering [lo, hi], and
// returns the persistent connection.
func registerCar(t *testing.T, addr, name string, lo, hi int) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)

	loF := domain.NewFloor(lo)
	hiF := domain.NewFloor(hi)
	require.NoError(t, wire.SendFrame(conn, wire.Join("CAR", name, loF.String(), hiF.String())))
	require.NoError(t, wire.SendFrame(conn, wire.Join("STATUS", "Closed", loF.String(), loF.String())))
	return conn
}

func call(t *testing.T, addr string, src, dst int) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, wire.SendFrame(conn, wire.Join("CALL", domain.NewFloor(src).String(), domain.NewFloor(dst).String())))
	reply, err := wire.ReceiveFrame(conn)
	require.NoError(t, err)
	return reply
}

func TestController_DispatchesCallToEligibleCar(t *testing.T) {
	_, addr, stop := testController(t)
	defer stop()

	conn := registerCar(t, addr, "Alpha", 1, 4)
	defer conn.Close()

	reply := call(t, addr, 1, 2)
	require.Equal(t, "CAR Alpha", reply)

	floorFrame, err := wire.ReceiveFrame(conn)
	require.NoError(t, err)
	require.Equal(t, "FLOOR 1", floorFrame)
}

func TestController_RejectsCallWithNoEligibleCar(t *testing.T) {
	_, addr, stop := testController(t)
	defer stop()

	conn := registerCar(t, addr, "Beta", -2, 1) // B3..1
	defer conn.Close()

	reply := call(t, addr, 1, 3)
	require.Equal(t, "UNAVAILABLE", reply)
}

func TestController_RedispatchesOnOpeningAtPreviouslyDisplayedFloor(t *testing.T) {
	_, addr, stop := testController(t)
	defer stop()

	conn := registerCar(t, addr, "Alpha", 1, 50)
	defer conn.Close()

	reply := call(t, addr, 3, 6)
	require.Equal(t, "CAR Alpha", reply)

	floorFrame, err := wire.ReceiveFrame(conn)
	require.NoError(t, err)
	require.Equal(t, "FLOOR 3", floorFrame)

	// second call merges into the queue while the car is still below 3
	conn2, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, wire.SendFrame(conn2, wire.Join("CALL", "7", "4")))
	reply2, err := wire.ReceiveFrame(conn2)
	require.NoError(t, err)
	require.Equal(t, "CAR Alpha", reply2)
	conn2.Close()

	// every dispatched call also pushes the queue's next undisplayed stop,
	// so 6 follows the second call straight away
	floorFrame, err = wire.ReceiveFrame(conn)
	require.NoError(t, err)
	require.Equal(t, "FLOOR 6", floorFrame)

	// car reports opening at floor 6, the floor it was last sent
	require.NoError(t, wire.SendFrame(conn, wire.Join("STATUS", "Opening", "6", "6")))

	floorFrame, err = wire.ReceiveFrame(conn)
	require.NoError(t, err)
	require.Equal(t, "FLOOR 7", floorFrame)
}

func TestController_DeregistersCarOnEmergency(t *testing.T) {
	_, addr, stop := testController(t)
	defer stop()

	conn := registerCar(t, addr, "Alpha", 1, 4)
	require.NoError(t, wire.SendFrame(conn, "EMERGENCY"))
	conn.Close()

	require.Eventually(t, func() bool {
		reply := call(t, addr, 1, 2)
		return reply == "UNAVAILABLE"
	}, time.Second, 10*time.Millisecond)
}

func TestController_DeregistersCarOnIndividualService(t *testing.T) {
	_, addr, stop := testController(t)
	defer stop()

	conn := registerCar(t, addr, "Alpha", 1, 4)
	require.NoError(t, wire.SendFrame(conn, wire.Join("INDIVIDUAL", "SERVICE")))
	conn.Close()

	require.Eventually(t, func() bool {
		reply := call(t, addr, 1, 2)
		return reply == "UNAVAILABLE"
	}, time.Second, 10*time.Millisecond)
}
