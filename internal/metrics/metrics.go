// Package metrics registers the prometheus instruments for the order core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	OrdersCreated   prometheus.Counter
	Transitions     *prometheus.CounterVec
	Cancellations   *prometheus.CounterVec
	Removals        prometheus.Counter
	RestockFailures prometheus.Counter
	CartMigrations  prometheus.Counter
	ArchivesPurged  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderflow_orders_created_total",
			Help: "Orders created from cart checkouts.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderflow_status_transitions_total",
			Help: "Successful order status transitions by target status.",
		}, []string{"target"}),
		Cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderflow_cancellations_total",
			Help: "Order cancellations by actor.",
		}, []string{"actor"}),
		Removals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderflow_removals_total",
			Help: "Admin order removals.",
		}),
		RestockFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderflow_restock_failures_total",
			Help: "Line items whose restock call failed.",
		}),
		CartMigrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderflow_cart_migrations_total",
			Help: "Cart migrations triggered by identity reconciliation.",
		}),
		ArchivesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderflow_archives_purged_total",
			Help: "Archived orders removed after their retention window.",
		}),
	}
	reg.MustRegister(
		m.OrdersCreated, m.Transitions, m.Cancellations, m.Removals,
		m.RestockFailures, m.CartMigrations, m.ArchivesPurged,
	)
	return m
}
