package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/elys-network/yieldkeeper/internal/types"
)

// Run status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	assetAPY = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "keeper_asset_apy_percent",
			Help: "Most recent APY estimate per asset, in percent",
		},
		[]string{"asset"},
	)

	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keeper_actions_total",
			Help: "Decisions taken per asset and action type",
		},
		[]string{"asset", "action"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keeper_runs_total",
			Help: "Invocations by final status",
		},
		[]string{"status"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "keeper_run_duration_seconds",
			Help:    "Wall time of a full invocation",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)
)

func ObserveAPY(symbol string, apy float64) {
	assetAPY.WithLabelValues(symbol).Set(apy)
}

func ObserveAction(symbol string, action types.ActionType) {
	actionsTotal.WithLabelValues(symbol, string(action)).Inc()
}

func ObserveRun(status string, elapsed time.Duration) {
	runsTotal.WithLabelValues(status).Inc()
	runDuration.Observe(elapsed.Seconds())
}
