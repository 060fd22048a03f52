package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// アプリのメトリクス一式。
// 独自Registryに登録するのでテストで何個作っても衝突しない。
type Metrics struct {
	registry *prometheus.Registry

	//outcome: reserved / insufficient_stock / not_found
	ReservationsTotal *prometheus.CounterVec

	//outcome: released / completed / expired / rejected
	ReservationTransitionsTotal *prometheus.CounterVec

	//type: restock / damage / ...
	AdjustmentsTotal *prometheus.CounterVec

	ExpiredSweepTotal prometheus.Counter

	HTTPRequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ReservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_reservations_total",
				Help: "Reservation attempts by outcome",
			},
			[]string{"outcome"},
		),
		ReservationTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_reservation_transitions_total",
				Help: "Reservation state transitions by outcome",
			},
			[]string{"outcome"},
		),
		AdjustmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_adjustments_total",
				Help: "Applied stock adjustments by type",
			},
			[]string{"type"},
		),
		ExpiredSweepTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "inventory_expired_reservations_total",
				Help: "Reservations transitioned to expired by the sweeper",
			},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	registry.MustRegister(
		m.ReservationsTotal,
		m.ReservationTransitionsTotal,
		m.AdjustmentsTotal,
		m.ExpiredSweepTotal,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
	)

	return m
}

// GET /metrics 用
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
