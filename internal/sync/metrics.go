package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tradesInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ctfindex_trades_inserted_total",
			Help: "Total number of trade rows inserted",
		},
	)

	windowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctfindex_sync_windows_total",
			Help: "Total number of sync windows by outcome",
		},
		[]string{"status"},
	)

	logsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctfindex_sync_logs_skipped_total",
			Help: "Total number of logs skipped by reason",
		},
		[]string{"reason"},
	)

	cursorHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ctfindex_sync_cursor_block",
			Help: "Last fully processed block number",
		},
	)
)

func TradesInsertedAdd(count int) {
	tradesInserted.Add(float64(count))
}

func WindowSucceededInc() {
	windowsProcessed.WithLabelValues("success").Inc()
}

func WindowFailedInc() {
	windowsProcessed.WithLabelValues("error").Inc()
}

func LogSkippedInc(reason string) {
	logsSkipped.WithLabelValues(reason).Inc()
}

func CursorHeightSet(block uint64) {
	cursorHeight.Set(float64(block))
}
