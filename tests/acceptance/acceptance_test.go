// Package acceptance drives a real controller and one or more real car
// agents over actual loopback sockets, the way the system's own processes
// would talk to each other, and exercises the end-to-end scenarios from
// spec.md §8. It runs every component in-process (rather than spawning
// separate OS processes) so go test can drive and tear them down directly,
// but the wire protocol, the shared memory block, and the scheduling queue
// are all exercised exactly as a real deployment would use them.
package acceptance

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mukuyev/elevator-control/internal/car"
	"github.com/mukuyev/elevator-control/internal/controller"
	"github.com/mukuyev/elevator-control/internal/domain"
	"github.com/mukuyev/elevator-control/internal/infra/config"
	"github.com/mukuyev/elevator-control/internal/shm"
	"github.com/mukuyev/elevator-control/internal/wire"
)

type AcceptanceSuite struct {
	suite.Suite
	ctx        context.Context
	cancel     context.CancelFunc
	controller *controller.Controller
	addr       string
	done       chan struct{}
}

func TestAcceptanceSuite(t *testing.T) {
	suite.Run(t, new(AcceptanceSuite))
}

func (s *AcceptanceSuite) SetupTest() {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(s.T(), err)
	s.addr = ln.Addr().String()
	ln.Close()

	host, portStr, err := net.SplitHostPort(s.addr)
	require.NoError(s.T(), err)
	port, err := strconv.Atoi(portStr)
	require.NoError(s.T(), err)

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.controller = controller.New(&config.ControllerConfig{
		ListenAddress: host, ListenPort: port, Backlog: 10,
	})

	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		_ = s.controller.Run(s.ctx)
	}()

	require.Eventually(s.T(), func() bool {
		conn, err := net.DialTimeout("tcp", s.addr, 50*time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, time.Second, 5*time.Millisecond)
}

func (s *AcceptanceSuite) TearDownTest() {
	s.cancel()
	<-s.done
}

func (s *AcceptanceSuite) carConfig() *config.CarConfig {
	host, portStr, _ := net.SplitHostPort(s.addr)
	port, _ := strconv.Atoi(portStr)
	return &config.CarConfig{
		ControllerAddress: host,
		ControllerPort:    port,
		DialTimeout:       time.Second,
		ReconnectBackoff:  10 * time.Millisecond,
		ShmPollInterval:   2 * time.Millisecond,
	}
}

func (s *AcceptanceSuite) startCar(name string, lo, hi int, delay time.Duration) *car.Car {
	c, err := car.New(name, domain.NewFloor(lo), domain.NewFloor(hi), delay, s.carConfig())
	require.NoError(s.T(), err)

	go func() { _ = c.Run(s.ctx) }()
	return c
}

func (s *AcceptanceSuite) callPad(src, dst string) string {
	conn, err := net.Dial("tcp", s.addr)
	require.NoError(s.T(), err)
	defer conn.Close()

	require.NoError(s.T(), wire.SendFrame(conn, wire.Join("CALL", src, dst)))
	reply, err := wire.ReceiveFrame(conn)
	require.NoError(s.T(), err)
	return reply
}

// TestS1BasicCall exercises spec.md §8 scenario S1: a single car answers a
// call and arrives with doors closed at the destination.
func (s *AcceptanceSuite) TestS1BasicCall() {
	s.startCar("Alpha", 1, 4, 10*time.Millisecond)

	require.Eventually(s.T(), func() bool {
		return s.callPad("1", "2") == "CAR Alpha"
	}, 2*time.Second, 20*time.Millisecond, "Alpha never registered in time to answer the call")

	block, err := shm.Attach(shm.Name("Alpha"))
	require.NoError(s.T(), err)
	defer block.Detach()

	require.Eventually(s.T(), func() bool {
		snap := block.Observe()
		return snap.Status == domain.StatusClosed &&
			snap.CurrentFloor.Value() == 2 && snap.DestinationFloor.Value() == 2
	}, 3*time.Second, 20*time.Millisecond, "Alpha never settled at floor 2 with doors closed")
}

// TestS2IneligibleCarRejected exercises spec.md §8 scenario S2: a car whose
// serviceable range does not cover the call leaves the controller with no
// eligible car.
func (s *AcceptanceSuite) TestS2IneligibleCarRejected() {
	s.startCar("Beta", -2, 1, 10*time.Millisecond) // B3..1

	require.Eventually(s.T(), func() bool {
		return s.callPad("1", "3") == "UNAVAILABLE"
	}, 2*time.Second, 20*time.Millisecond)
}

// TestS3ServiceModeWithdrawal exercises spec.md §8 scenario S3: a car placed
// into individual service mode withdraws from dispatch and reconnects once
// service mode is cleared.
func (s *AcceptanceSuite) TestS3ServiceModeWithdrawal() {
	s.startCar("Alpha", 1, 4, 10*time.Millisecond)

	require.Eventually(s.T(), func() bool {
		return s.callPad("1", "2") == "CAR Alpha"
	}, 2*time.Second, 20*time.Millisecond)

	block, err := shm.Attach(shm.Name("Alpha"))
	require.NoError(s.T(), err)
	defer block.Detach()

	block.Mutate(func(snap *shm.Snapshot) { snap.IndividualServiceMode = true })

	require.Eventually(s.T(), func() bool {
		return s.callPad("1", "2") == "UNAVAILABLE"
	}, 2*time.Second, 20*time.Millisecond, "controller should have deregistered Alpha")

	block.Mutate(func(snap *shm.Snapshot) { snap.IndividualServiceMode = false })

	require.Eventually(s.T(), func() bool {
		return s.callPad("1", "2") == "CAR Alpha"
	}, 2*time.Second, 20*time.Millisecond, "Alpha should have reconnected once service mode cleared")
}
