// Package metrics provides the prometheus collectors for the chain engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "powledger"

var (
	mineTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "mine_total",
		Help:      "Count of mining rounds by outcome.",
	}, []string{"status"})

	mineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "mine_duration_seconds",
		Help:      "Duration of a mining round including the proof of work.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	mineAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "mine_attempts",
		Help:      "Number of nonces tried to solve a block.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 14), // 1..67M
	})

	blockTransfers = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "block_transfers",
		Help:      "Number of transfers included in a mined block.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1..2048
	})

	chainHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "height",
		Help:      "Index of the latest block.",
	})

	validateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "validate_total",
		Help:      "Count of chain validations by outcome.",
	}, []string{"status"})

	validateErrors = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "validate_errors",
		Help:      "Number of integrity violations found by the last validation.",
	})

	validateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "validate_duration_seconds",
		Help:      "Duration of a full chain validation.",
		Buckets:   prometheus.DefBuckets,
	})

	rebuildTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "rebuild_total",
		Help:      "Count of chain rebuilds by outcome.",
	}, []string{"status"})

	rebuildBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "rebuild_blocks_total",
		Help:      "Count of blocks re-mined by rebuilds.",
	})

	tamperTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "tamper_total",
		Help:      "Count of privileged tamper operations by record kind.",
	}, []string{"kind"})
)

// Set of status label values.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusError   = "error"
	StatusInvalid = "invalid"
)

// Set of tamper kinds.
const (
	KindBlock    = "block"
	KindTransfer = "transfer"
)

// Chain records the activity of the chain engine.
type Chain struct{}

// ObserveMine records a mining round.
func (Chain) ObserveMine(status string, attempts uint64, transfers int, started time.Time) {
	mineTotal.WithLabelValues(status).Inc()
	mineDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())

	if status == StatusSuccess {
		mineAttempts.Observe(float64(attempts))
		blockTransfers.Observe(float64(transfers))
	}
}

// SetHeight records the index of the latest block.
func (Chain) SetHeight(index uint64) {
	chainHeight.Set(float64(index))
}

// ObserveValidate records a chain validation.
func (Chain) ObserveValidate(status string, errs int, started time.Time) {
	validateTotal.WithLabelValues(status).Inc()
	validateErrors.Set(float64(errs))
	validateDuration.Observe(time.Since(started).Seconds())
}

// ObserveRebuild records a chain rebuild.
func (Chain) ObserveRebuild(status string, rebuilt int) {
	rebuildTotal.WithLabelValues(status).Inc()
	rebuildBlocks.Add(float64(rebuilt))
}

// ObserveTamper records a privileged tamper operation.
func (Chain) ObserveTamper(kind string) {
	tamperTotal.WithLabelValues(kind).Inc()
}
