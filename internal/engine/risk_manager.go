package engine

import (
	"context"
	"time"

	"options-trading-bot/internal/logger"
	"options-trading-bot/internal/market"
	"options-trading-bot/internal/store"
	"options-trading-bot/internal/types"
)

// decision is the outcome of the entry gate. Reason names the first
// check that blocked the trade.
type decision struct {
	Allow  bool
	Reason string
}

// riskManager gates new entries against the day's counters: trade
// count, realized loss, session windows and post-exit guards. It holds
// only per-day state; limits come from the config snapshot on each
// check so mid-day config updates take effect immediately.
type riskManager struct {
	tradesToday int
	realizedPnL float64
	lossCapHit  bool

	lastEntry time.Time
	lastExit  time.Time

	// Leg exited by a strategy signal. Re-entering the same leg is
	// blocked until SuperTrend flips again or the other leg triggers.
	blockedLeg types.Leg
}

func newRiskManager() *riskManager {
	return &riskManager{}
}

// ResetDay clears the day counters at session rollover.
func (rm *riskManager) ResetDay() {
	*rm = riskManager{}
}

// Restore seeds the counters from persisted trades after a restart so
// the day's limits pick up where they left off.
func (rm *riskManager) Restore(trades int, pnl float64) {
	rm.tradesToday = trades
	rm.realizedPnL = pnl
}

// CheckEntry runs the entry gate in a fixed order and returns the first
// block hit. A blocked entry never mutates state.
func (rm *riskManager) CheckEntry(ctx context.Context, now time.Time, cfg store.Config, sig types.Signal, hasPosition bool) decision {
	if !market.IsOpen(now) {
		return rm.block(ctx, cfg, sig, "market_closed")
	}

	entryStart, _ := market.ParseClock(cfg.Session.EntryStart)
	entryCutoff, _ := market.ParseClock(cfg.Session.EntryCutoff)
	if entryStart.Before(now) || entryCutoff.Reached(now) {
		return rm.block(ctx, cfg, sig, "entry_window_closed")
	}

	if hasPosition {
		return rm.block(ctx, cfg, sig, "position_open")
	}

	if rm.tradesToday >= cfg.Risk.MaxTradesPerDay {
		return rm.block(ctx, cfg, sig, "max_trades_reached")
	}

	if rm.lossCapHit || (cfg.Risk.DailyMaxLoss > 0 && rm.realizedPnL <= -cfg.Risk.DailyMaxLoss) {
		rm.lossCapHit = true
		return rm.block(ctx, cfg, sig, "daily_loss_cap")
	}

	if cfg.Session.MinTradeGap > 0 && !rm.lastEntry.IsZero() {
		gap := time.Duration(cfg.Session.MinTradeGap) * time.Second
		if now.Sub(rm.lastEntry) < gap {
			return rm.block(ctx, cfg, sig, "min_trade_gap")
		}
	}

	// One full candle must close after an exit before re-entering.
	if !rm.lastExit.IsZero() {
		cooldown := time.Duration(cfg.CandleInterval) * time.Second
		if now.Sub(rm.lastExit) < cooldown {
			return rm.block(ctx, cfg, sig, "cooldown_after_exit")
		}
	}

	if leg, ok := sig.BuyLeg(); ok && leg == rm.blockedLeg && !isFlipReason(sig.Reason) {
		return rm.block(ctx, cfg, sig, "signal_flip_required")
	}

	return decision{Allow: true}
}

func (rm *riskManager) block(ctx context.Context, cfg store.Config, sig types.Signal, reason string) decision {
	logger.Risk(ctx, cfg.SelectedIndex, "ENTRY_BLOCKED",
		"reason", reason,
		"signal", sig.Kind.String(),
		"trades_today", rm.tradesToday,
		"realized_pnl", rm.realizedPnL,
	)
	return decision{Reason: reason}
}

// RecordEntry counts a confirmed fill against the day's limits.
func (rm *riskManager) RecordEntry(now time.Time) {
	rm.tradesToday++
	rm.lastEntry = now
	rm.blockedLeg = ""
}

// RecordExit folds a closed trade into the day's PnL and arms the
// post-exit guards. Only strategy exits block same-leg re-entry; stop
// and target exits leave the leg tradable.
func (rm *riskManager) RecordExit(tr types.TradeRecord, strategyExit bool) {
	rm.realizedPnL += tr.PnL
	rm.lastExit = tr.ExitTime
	if strategyExit {
		rm.blockedLeg = tr.Leg
	}
}

// LossCapHit reports whether the daily loss cap has latched. It stays
// latched until the next session even if later trades recover the PnL.
func (rm *riskManager) LossCapHit(cfg store.Config) bool {
	if cfg.Risk.DailyMaxLoss > 0 && rm.realizedPnL <= -cfg.Risk.DailyMaxLoss {
		rm.lossCapHit = true
	}
	return rm.lossCapHit
}

func (rm *riskManager) TradesToday() int     { return rm.tradesToday }
func (rm *riskManager) RealizedPnL() float64 { return rm.realizedPnL }

func isFlipReason(reason string) bool {
	return reason == "supertrend_flip_bullish" || reason == "supertrend_flip_bearish"
}
