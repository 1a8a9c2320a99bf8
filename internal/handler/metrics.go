package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersPlaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Total number of successfully placed orders",
		},
	)

	ordersRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "orders",
			Name:      "rejected_total",
			Help:      "Total number of rejected order placements",
		},
		[]string{"reason"},
	)

	statusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "orders",
			Name:      "status_updates_total",
			Help:      "Total number of successful status transitions",
		},
		[]string{"status"},
	)
)
