package controller

import (
	"net"

	"github.com/mukuyev/elevator-control/internal/domain"
)

// event is the sum type carried over the dispatch channel. Every mutation of
// the registry or a car's queue, and every write to a connection, happens on
// the single goroutine that drains this channel — the idiomatic substitute
// for the original's single-threaded select()/poll() loop.
type event struct {
	kind eventKind

	// callEvent / registerEvent
	conn net.Conn

	// callEvent
	src domain.Floor
	dst domain.Floor

	// registerEvent
	name     string
	minFloor domain.Floor
	maxFloor domain.Floor

	// statusEvent
	status  domain.Status
	current domain.Floor

	// deregisterEvent identifies the car by name only; its connection is
	// looked up in the registry.
}

type eventKind int

const (
	eventCall eventKind = iota
	eventRegister
	eventStatus
	eventDeregister
)
