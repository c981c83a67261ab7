package fn

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dsyer/spring-cloud-function/catalog"
)

var (
	invocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fn_invocations_total",
			Help: "Total number of function, consumer and supplier invocations",
		},
		[]string{"name", "kind", "status"},
	)

	invocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fn_invocation_duration_seconds",
			Help:    "Duration of invocations in seconds, including response shaping",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"name", "kind"},
	)

	exportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fn_export_items_total",
			Help: "Total number of supplier items forwarded by the exporter",
		},
		[]string{"supplier", "status"},
	)
)

func recordInvocation(t *catalog.Target, status string, start time.Time) {
	name, kind := "", ""
	if t != nil {
		name, kind = t.Name, t.Kind.String()
	}
	invocationsTotal.WithLabelValues(name, kind, status).Inc()
	invocationDuration.WithLabelValues(name, kind).Observe(time.Since(start).Seconds())
}
