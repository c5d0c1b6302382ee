package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Engine-level counters and gauges, registered on the default
// registry and exposed by the /metrics endpoint when configured.
var (
	TicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_ticks_total",
		Help: "Market ticks consumed from the feed.",
	})

	CandlesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_candles_total",
		Help: "Candles finalized by the aggregator.",
	})

	SignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_signals_total",
		Help: "Signals emitted per kind.",
	}, []string{"kind"})

	EntriesBlockedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_entries_blocked_total",
		Help: "Entries rejected by the risk gate, per reason.",
	}, []string{"reason"})

	TradesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_trades_total",
		Help: "Closed trades per exit reason.",
	}, []string{"exit_reason"})

	OrderFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_order_failures_total",
		Help: "Broker order failures per operation.",
	}, []string{"op"})

	DayPnL = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_day_realized_pnl",
		Help: "Realized PnL of the current session, rupees.",
	})

	PositionOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_position_open",
		Help: "1 while a position is open, else 0.",
	})

	FeedGapSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_feed_gap_seconds",
		Help: "Seconds since the last tick was received.",
	})
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		CandlesTotal,
		SignalsTotal,
		EntriesBlockedTotal,
		TradesTotal,
		OrderFailuresTotal,
		DayPnL,
		PositionOpen,
		FeedGapSeconds,
	)
}
