package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	signalsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "proctor",
			Subsystem: "registry",
			Name:      "signals_total",
			Help:      "Number of signals delivered to registry processes.",
		}, []string{"signal"},
	)
	selfHeals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "proctor",
			Subsystem: "registry",
			Name:      "self_heals_total",
			Help:      "Number of records healed after their process vanished.",
		},
	)
	removes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "proctor",
			Subsystem: "registry",
			Name:      "removes_total",
			Help:      "Number of removal attempts by outcome.",
		}, []string{"outcome"},
	)
	cleanups = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "proctor",
			Subsystem: "registry",
			Name:      "cleanups_total",
			Help:      "Number of cleanup scans.",
		},
	)
	opDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "proctor",
			Subsystem: "registry",
			Name:      "op_duration_seconds",
			Help:      "Duration of registry operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{signalsSent, selfHeals, removes, cleanups, opDuration}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncSignal(signum int) {
	if regOK.Load() {
		signalsSent.WithLabelValues(strconv.Itoa(signum)).Inc()
	}
}

func IncSelfHeal() {
	if regOK.Load() {
		selfHeals.Inc()
	}
}

func IncRemove(outcome string) {
	if regOK.Load() {
		removes.WithLabelValues(outcome).Inc()
	}
}

func IncCleanup() {
	if regOK.Load() {
		cleanups.Inc()
	}
}

func ObserveOp(op string, seconds float64) {
	if regOK.Load() {
		opDuration.WithLabelValues(op).Observe(seconds)
	}
}
