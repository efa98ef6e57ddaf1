// Package safety implements the independent watchdog that attaches to a
// car's shared state block and enforces the invariants a compromised or
// malfunctioning car agent might violate.
package safety

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"syscall"

	"github.com/mukuyev/elevator-control/internal/constants"
	"github.com/mukuyev/elevator-control/internal/domain"
	"github.com/mukuyev/elevator-control/internal/infra/config"
	"github.com/mukuyev/elevator-control/internal/metrics"
	"github.com/mukuyev/elevator-control/internal/shm"
)

const (
	msgConsistency   = "Data consistency error!\n"
	msgEmergencyStop = "The emergency stop button has been pressed!\n"
	msgOverload      = "The overload sensor has been tripped!\n"
)

// Monitor watches one car's shared block and forces emergency_mode when an
// invariant is violated. It latches the emergency-stop and overload messages
// so each is reported at most once per process lifetime, per spec invariant
// 6.
type Monitor struct {
	carName string
	cfg     *config.SafetyConfig
	logger  *slog.Logger

	emergencyStopLatched bool
	overloadLatched      bool
}

// New returns a Monitor for carName.
func New(carName string, cfg *config.SafetyConfig) *Monitor {
	return &Monitor{
		carName: carName,
		cfg:     cfg,
		logger: slog.With(
			slog.String("component", constants.ComponentSafety),
			slog.String("car_name", carName),
		),
	}
}

// Run attaches to the car's shared block and loops, waking at least once per
// PollInterval (the timed condvar wait the spec calls for), checking
// invariants each time it wakes, and exiting when ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	block, err := shm.Attach(shm.Name(m.carName))
	if err != nil {
		return err
	}
	defer block.Detach()

	m.logger.Info("safety monitor attached", slog.Duration("poll_interval", m.cfg.PollInterval))

	lastGen := block.Generation()
	for {
		waitCtx, cancel := context.WithTimeout(ctx, m.cfg.PollInterval)
		_, _, _ = block.WaitForChange(waitCtx, lastGen, m.cfg.PollInterval)
		cancel()
		if ctx.Err() != nil {
			m.logger.Info("safety monitor stopping")
			return nil
		}
		m.tick(block)
		lastGen = block.Generation()
	}
}

// tick performs the five-step check spec.md §4.5 prescribes against a single
// snapshot read under the block's own lock, mutating the block at most once
// so every check is applied against a consistent view.
func (m *Monitor) tick(block *shm.Block) {
	block.Mutate(func(s *shm.Snapshot) {
		if !s.IsConsistent() {
			writeLine(msgConsistency)
			s.EmergencyMode = true
			metrics.IncEmergencyLatched("consistency")
		}

		if s.Status == domain.StatusClosing && s.DoorObstruction {
			s.Status = domain.StatusOpening
		}

		if s.EmergencyStop && !m.emergencyStopLatched {
			writeLine(msgEmergencyStop)
			m.emergencyStopLatched = true
			s.EmergencyMode = true
			metrics.IncEmergencyLatched("emergency_stop")
		}

		if s.Overload && !m.overloadLatched {
			writeLine(msgOverload)
			m.overloadLatched = true
			s.EmergencyMode = true
			metrics.IncEmergencyLatched("overload")
		}
	})
}

// writeLine emits msg with the bare write(2) syscall rather than buffered
// stdio, so a safety message is flushed immediately even if the process is
// about to be forced down.
func writeLine(msg string) {
	_, _ = syscall.Write(int(os.Stdout.Fd()), []byte(msg))
}

// RunAll attaches a Monitor to each named car and runs them concurrently
// until ctx is done or one of them fails to attach.
func RunAll(ctx context.Context, carNames []string, cfg *config.SafetyConfig) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(carNames))

	for _, name := range carNames {
		m := New(name, cfg)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Run(ctx); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
