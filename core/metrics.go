package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts authentication outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	authentications *prometheus.CounterVec
	lookupDuration  *prometheus.HistogramVec
	corruptRecords  *prometheus.CounterVec
}

// NewMetrics registers the broker collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authbroker_authentications_total",
			Help: "Authentication attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authbroker_store_lookup_duration_seconds",
			Help:    "Latency of credential store reads.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		corruptRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authbroker_corrupt_records_total",
			Help: "Stored records that could not be decoded or were inconsistent.",
		}, []string{"record"}),
	}
	reg.MustRegister(m.authentications, m.lookupDuration, m.corruptRecords)
	return m
}

// ObserveAuthentication records one finished Authenticate call. err == nil is
// recorded as outcome "success", otherwise as the error kind.
func (m *Metrics) ObserveAuthentication(method AuthMethod, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	m.authentications.WithLabelValues(string(method), outcome).Inc()
}

func (m *Metrics) observeLookup(operation string, started time.Time, now time.Time) {
	if m == nil {
		return
	}
	m.lookupDuration.WithLabelValues(operation).Observe(now.Sub(started).Seconds())
}

func (m *Metrics) observeCorrupt(record string) {
	if m == nil {
		return
	}
	m.corruptRecords.WithLabelValues(record).Inc()
}
