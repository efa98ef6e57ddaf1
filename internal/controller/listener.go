package controller

import (
	"context"
	"log/slog"
	"net"

	"github.com/mukuyev/elevator-control/internal/domain"
	"github.com/mukuyev/elevator-control/internal/wire"
)

// handleCall parses a "CALL src dst" frame and enqueues it for dispatch. The
// dispatch goroutine owns writing the reply and closing this connection,
// since call-pad connections are expected to close immediately after one
// reply and only the dispatch goroutine ever writes.
func (c *Controller) handleCall(conn net.Conn, fields []string) {
	if len(fields) != 3 {
		conn.Close()
		return
	}
	src, err1 := domain.ParseFloor(fields[1])
	dst, err2 := domain.ParseFloor(fields[2])
	if err1 != nil || err2 != nil {
		conn.Close()
		return
	}

	c.events <- event{kind: eventCall, conn: conn, src: src, dst: dst}
}

// handleCarRegistration parses a "CAR name lo hi" frame, enqueues the
// registration, and then loops reading further frames from the car's
// connection for the life of the process, forwarding STATUS/EMERGENCY/
// INDIVIDUAL SERVICE frames to the dispatch goroutine. A read error is
// treated as a withdrawal.
func (c *Controller) handleCarRegistration(ctx context.Context, conn net.Conn, fields []string) {
	if len(fields) != 4 {
		conn.Close()
		return
	}
	name := fields[1]
	lo, err1 := domain.ParseFloor(fields[2])
	hi, err2 := domain.ParseFloor(fields[3])
	if err1 != nil || err2 != nil {
		conn.Close()
		return
	}

	c.events <- event{kind: eventRegister, conn: conn, name: name, minFloor: lo, maxFloor: hi}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		payload, err := wire.ReceiveFrame(conn)
		if err != nil {
			c.logger.Info("car connection closed", slog.String("car_name", name))
			c.events <- event{kind: eventDeregister, name: name}
			return
		}

		frameFields := wire.Fields(payload)
		if len(frameFields) == 0 {
			continue
		}

		switch frameFields[0] {
		case "EMERGENCY":
			c.events <- event{kind: eventDeregister, name: name}
			return
		case "INDIVIDUAL":
			if len(frameFields) == 2 && frameFields[1] == "SERVICE" {
				c.events <- event{kind: eventDeregister, name: name}
				return
			}
		case "STATUS":
			if len(frameFields) != 4 {
				continue
			}
			status := domain.Status(frameFields[1])
			current, err1 := domain.ParseFloor(frameFields[2])
			dst, err2 := domain.ParseFloor(frameFields[3])
			if err1 != nil || err2 != nil || !status.IsValid() {
				continue
			}
			c.events <- event{kind: eventStatus, name: name, status: status, current: current, dst: dst}
		}
	}
}
