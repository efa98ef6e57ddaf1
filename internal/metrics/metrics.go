// Package metrics holds the prometheus counters and gauges the controller
// and safety monitor record. Only the controller process serves them, on its
// debug /metrics endpoint; the safety process records its emergency-latch
// counter but runs no metrics server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "elevator"

var (
	registeredCars = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "registered_cars",
		Help:      "Number of cars currently registered with the controller.",
	})

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Number of undisplayed stops in a car's scheduling queue.",
		},
		[]string{"car"},
	)

	callsDispatched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calls_dispatched_total",
		Help:      "Total number of CALL requests successfully dispatched to a car.",
	})

	callsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calls_rejected_total",
		Help:      "Total number of CALL requests rejected as UNAVAILABLE.",
	})

	emergencyLatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emergency_latched_total",
			Help:      "Total number of times the safety monitor latched emergency_mode, by cause.",
		},
		[]string{"cause"},
	)
)

func init() {
	prometheus.MustRegister(registeredCars, queueDepth, callsDispatched, callsRejected, emergencyLatched)
}

// SetRegisteredCars records the controller's current registry size.
func SetRegisteredCars(n int) {
	registeredCars.Set(float64(n))
}

// SetQueueDepth records the number of undisplayed stops remaining for car.
func SetQueueDepth(car string, depth int) {
	queueDepth.With(prometheus.Labels{"car": car}).Set(float64(depth))
}

// IncCallsDispatched increments the dispatched-call counter.
func IncCallsDispatched() {
	callsDispatched.Inc()
}

// IncCallsRejected increments the rejected-call counter.
func IncCallsRejected() {
	callsRejected.Inc()
}

// IncEmergencyLatched increments the emergency-latch counter for the given
// cause ("consistency", "emergency_stop", or "overload").
func IncEmergencyLatched(cause string) {
	emergencyLatched.With(prometheus.Labels{"cause": cause}).Inc()
}
