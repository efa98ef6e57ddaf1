package controller

import (
	"net"

	"github.com/mukuyev/elevator-control/internal/domain"
	"github.com/mukuyev/elevator-control/internal/schedule"
)

// registration is one car's entry in the controller's registry: its
// serviceable floor range, its connection, its pending-stop queue, and the
// last status it reported (for the debug endpoints only; dispatch decisions
// use the queue, not this cache).
type registration struct {
	name     string
	minFloor domain.Floor
	maxFloor domain.Floor
	conn     net.Conn
	queue    *schedule.Queue

	lastStatus  domain.Status
	lastCurrent domain.Floor
	lastDst     domain.Floor
}

// covers reports whether this car's serviceable range includes both src and
// dst.
func (r *registration) covers(src, dst domain.Floor) bool {
	return src.IsValid(r.minFloor, r.maxFloor) && dst.IsValid(r.minFloor, r.maxFloor)
}
