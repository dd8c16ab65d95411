package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created at checkout",
	})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders confirmed paid",
	})

	OrdersFulfilledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_fulfilled_total",
		Help: "Total number of orders marked fulfilled",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of cancelled orders",
	})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Total number of failed checkout attempts",
	}, []string{"reason"})

	PaymentSessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_sessions_total",
		Help: "Total number of hosted payment sessions started",
	})

	PaymentSessionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_session_latency_seconds",
		Help:    "Latency of payment session creation against the processor",
		Buckets: prometheus.DefBuckets,
	})

	PaymentWebhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_total",
		Help: "Total number of payment webhook events by outcome",
	}, []string{"outcome"})

	QuotesReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotes_received_total",
		Help: "Total number of quote requests received",
	})

	CartStorageFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_storage_fallbacks_total",
		Help: "Total number of carts degraded to in-memory storage",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
