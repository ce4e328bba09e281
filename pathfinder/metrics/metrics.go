// Package metrics holds the prometheus collectors of the swap engine.
// They are registered on the default registry and served by the rpc
// server under /server/metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Market data
	MarketDataLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swap_market_data_load_seconds",
		Help:    "Time taken to fetch and index the pool and asset feeds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	MarketDataLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_market_data_loads_total",
			Help: "Market data initializations by outcome",
		},
		[]string{"status"},
	)

	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swap_pool_count",
		Help: "Number of two-asset pools in the pool graph",
	})

	AssetCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swap_asset_count",
		Help: "Number of tradable assets in the asset list",
	})

	FeedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_feed_requests_total",
			Help: "HTTP requests made to the market data feeds",
		},
		[]string{"feed", "status"},
	)

	// Routing
	RouteResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_route_resolutions_total",
			Help: "Route resolutions by kind (direct, bridged, none)",
		},
		[]string{"kind"},
	)

	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_quote_requests_total",
			Help: "Quote requests by status",
		},
		[]string{"status"},
	)

	QuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swap_quote_duration_seconds",
		Help:    "Quote computation duration in seconds",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})

	// Execution
	SwapBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_broadcasts_total",
			Help: "Swap transactions handed to the chain client by status",
		},
		[]string{"status"},
	)

	SwapConfirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_confirmations_total",
			Help: "Swap confirmation outcomes (confirmed, failed, timeout, cancelled)",
		},
		[]string{"status"},
	)
)
