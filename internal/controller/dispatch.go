package controller

import (
	"context"
	"log/slog"

	"github.com/mukuyev/elevator-control/internal/domain"
	httpstatus "github.com/mukuyev/elevator-control/internal/http"
	"github.com/mukuyev/elevator-control/internal/infra/tracing"
	"github.com/mukuyev/elevator-control/internal/metrics"
	"github.com/mukuyev/elevator-control/internal/schedule"
	"github.com/mukuyev/elevator-control/internal/wire"
)

// dispatchLoop is the only goroutine that ever mutates the registry, mutates
// a car's queue, or writes to a registered car's connection. It drains
// c.events until ctx is cancelled (on shutdown).
func (c *Controller) dispatchLoop(ctx context.Context) {
	var registry []*registration

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			switch ev.kind {
			case eventCall:
				registry = c.handleCallEvent(ctx, registry, ev)
			case eventRegister:
				registry = c.handleRegisterEvent(registry, ev)
			case eventStatus:
				c.handleStatusEvent(registry, ev)
			case eventDeregister:
				registry = c.handleDeregisterEvent(registry, ev)
			}
			c.setRegistrySnapshot(registry)
		}
	}
}

func (c *Controller) handleCallEvent(ctx context.Context, registry []*registration, ev event) []*registration {
	_, span := tracing.StartSpan(ctx, "controller.dispatch_call")
	defer span.End()

	for _, r := range registry {
		if !r.covers(ev.src, ev.dst) {
			continue
		}

		r.queue.Insert(ev.src, ev.dst)
		_ = wire.SendFrame(ev.conn, wire.Join("CAR", r.name))
		ev.conn.Close()

		if floor, ok := r.queue.NextUndisplayed(); ok {
			_ = wire.SendFrame(r.conn, wire.Join("FLOOR", floor.String()))
			c.publish(httpstatus.CarStatus{Car: r.name, Event: "floor_dispatched", DestinationFloor: floor.String()})
		}
		metrics.IncCallsDispatched()
		metrics.SetQueueDepth(r.name, r.queue.Len())
		c.logger.Info("call dispatched",
			slog.String("car_name", r.name),
			slog.Int("src", ev.src.Value()),
			slog.Int("dst", ev.dst.Value()))
		return registry
	}

	_ = wire.SendFrame(ev.conn, "UNAVAILABLE")
	ev.conn.Close()
	metrics.IncCallsRejected()
	c.logger.Info("call rejected, no available car",
		slog.Int("src", ev.src.Value()),
		slog.Int("dst", ev.dst.Value()))
	return registry
}

func (c *Controller) handleRegisterEvent(registry []*registration, ev event) []*registration {
	if len(registry) >= c.cfg.Backlog {
		c.logger.Warn("registry full, rejecting car registration",
			slog.String("car_name", ev.name), slog.Int("backlog", c.cfg.Backlog))
		ev.conn.Close()
		return registry
	}

	r := &registration{
		name:     ev.name,
		minFloor: ev.minFloor,
		maxFloor: ev.maxFloor,
		conn:     ev.conn,
		queue:    schedule.New(),
	}
	c.logger.Info("car registered",
		slog.String("car_name", r.name),
		slog.Int("min_floor", r.minFloor.Value()),
		slog.Int("max_floor", r.maxFloor.Value()))
	c.publish(httpstatus.CarStatus{Car: r.name, Event: "registered"})
	return append(registry, r)
}

// handleStatusEvent implements re-dispatch: if the car reports it is
// Opening, its queue is non-empty, and the floor it opened at matches the
// floor last handed out by NextUndisplayed, the next undisplayed stop (if
// any) is pushed to the car now. All other status updates are informational.
func (c *Controller) handleStatusEvent(registry []*registration, ev event) {
	r := findByName(registry, ev.name)
	if r == nil {
		return
	}
	r.lastStatus = ev.status
	r.lastCurrent = ev.current
	r.lastDst = ev.dst
	c.publish(httpstatus.CarStatus{
		Car: r.name, Event: "status",
		Status: string(ev.status), CurrentFloor: ev.current.String(), DestinationFloor: ev.dst.String(),
	})

	if ev.status != domain.StatusOpening || r.queue.Empty() {
		return
	}
	prev, ok := r.queue.PrevDisplayed()
	if !ok || !prev.IsEqual(ev.current) {
		return
	}
	if floor, ok := r.queue.NextUndisplayed(); ok {
		_ = wire.SendFrame(r.conn, wire.Join("FLOOR", floor.String()))
		metrics.SetQueueDepth(r.name, r.queue.Len())
		c.publish(httpstatus.CarStatus{Car: r.name, Event: "floor_dispatched", DestinationFloor: floor.String()})
	}
}

func (c *Controller) handleDeregisterEvent(registry []*registration, ev event) []*registration {
	r := findByName(registry, ev.name)
	if r == nil {
		return registry
	}
	r.conn.Close()
	c.logger.Info("car deregistered", slog.String("car_name", ev.name))
	c.publish(httpstatus.CarStatus{Car: r.name, Event: "deregistered"})

	out := make([]*registration, 0, len(registry)-1)
	for _, existing := range registry {
		if existing.name != ev.name {
			out = append(out, existing)
		}
	}
	return out
}

func findByName(registry []*registration, name string) *registration {
	for _, r := range registry {
		if r.name == name {
			return r
		}
	}
	return nil
}
