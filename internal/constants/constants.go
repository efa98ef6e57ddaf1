package constants

import "time"

// Application constants centralized in one location to improve type safety
// and eliminate magic strings throughout the codebase

// Network defaults
const (
	ControllerPort    = 3000
	ControllerAddress = "127.0.0.1"
	ControllerBacklog = 10
)

// Timing defaults
const (
	DefaultFloorDelay = 500 * time.Millisecond
	DefaultDoorDelay  = 2 * time.Second
	SafetyPollPeriod  = 1 * time.Second
	ShmPollInterval   = 10 * time.Millisecond
	ReconnectBackoff  = 1 * time.Second
	DialTimeout       = 3 * time.Second
)

// Floor value limits, matching the contiguous Bk..k encoding in domain.Floor
const (
	MinFloorValue = -98
	MaxFloorValue = 999
)

// Component names for logging
const (
	ComponentCar        = "car"
	ComponentController = "controller"
	ComponentSafety     = "safety"
	ComponentSchedule   = "schedule"
	ComponentShm        = "shm"
	ComponentWire       = "wire"
)

// Metrics
const (
	MetricsNamespace = "elevator"
	CarNameLabel     = "car"
)

// Default car shared memory name prefix
const (
	ShmNamePrefix = "/car"
)
