package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets minted, by tier and payment asset",
		},
		[]string{"tier_id", "asset", "kind"},
	)

	issuanceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issuance_failures_total",
			Help: "Rejected issuance attempts by reason",
		},
		[]string{"reason"},
	)

	listingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_created_total",
			Help: "Resale listings created",
		},
		[]string{"pending_verification"},
	)

	listingsSettled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_settled_total",
			Help: "Listings leaving the active pool",
		},
		[]string{"outcome"}, // sold | delisted
	)

	verificationResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_results_total",
			Help: "Oracle verification callbacks processed",
		},
		[]string{"outcome"}, // activated | delisted | duplicate | unknown
	)

	quoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "price_quote_duration_seconds",
			Help:    "Latency of price oracle quotes",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"asset", "source"}, // source: feed | cache
	)
)

func TicketIssued(tierID, asset, kind string) {
	ticketsIssued.WithLabelValues(tierID, asset, kind).Inc()
}

func IssuanceFailed(reason string) {
	issuanceFailures.WithLabelValues(reason).Inc()
}

func ListingCreated(pending bool) {
	label := "false"
	if pending {
		label = "true"
	}
	listingsCreated.WithLabelValues(label).Inc()
}

func ListingSettled(outcome string) {
	listingsSettled.WithLabelValues(outcome).Inc()
}

func VerificationResult(outcome string) {
	verificationResults.WithLabelValues(outcome).Inc()
}

func ObserveQuote(asset, source string, d time.Duration) {
	quoteDuration.WithLabelValues(asset, source).Observe(d.Seconds())
}
