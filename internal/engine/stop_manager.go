package engine

import (
	"context"
	"math"

	"options-trading-bot/internal/logger"
	"options-trading-bot/internal/store"
	"options-trading-bot/internal/types"
)

// stopManager owns per-tick exit checks for the open position: the
// per-trade loss cap, the profit target and the trailing stop. The
// trailing stop arms once profit reaches trail_start_profit and then
// ratchets in trail_step increments above the entry; it never loosens.
type stopManager struct{}

func newStopManager() *stopManager { return &stopManager{} }

// Arm seeds the initial stop when a position opens. With
// initial_stoploss disabled the position starts unprotected until the
// trail arms.
func (sm *stopManager) Arm(pos *types.Position, cfg store.Config) {
	if cfg.Stop.InitialStoploss > 0 {
		pos.TrailingStop = roundTick(pos.EntryPrice - cfg.Stop.InitialStoploss)
	}
}

// Update refreshes the high-water mark and the trailing stop for one
// price observation. Must run before Check so a new high on the exit
// tick still tightens the stop.
func (sm *stopManager) Update(ctx context.Context, pos *types.Position, price float64, cfg store.Config) {
	pos.LastPrice = price
	profit := price - pos.EntryPrice
	if profit <= pos.HighWater {
		return
	}
	pos.HighWater = profit

	if cfg.Stop.TrailStart <= 0 || profit < cfg.Stop.TrailStart {
		return
	}

	var sl float64
	if cfg.Stop.TrailStep > 0 {
		levels := math.Floor((profit - cfg.Stop.TrailStart) / cfg.Stop.TrailStep)
		sl = pos.EntryPrice + levels*cfg.Stop.TrailStep
	} else {
		sl = pos.EntryPrice + profit - cfg.Stop.TrailDistance
	}
	sl = roundTick(sl)

	if sl > pos.TrailingStop {
		old := pos.TrailingStop
		pos.TrailingStop = sl
		logger.Debug(ctx, "Trailing stop raised",
			"trade_id", pos.TradeID,
			"old_sl", old,
			"new_sl", sl,
			"high_water", pos.HighWater,
			"price", price,
		)
	}
}

// Check returns the exit reason hit by this price, or "" to stay in.
// Precedence: per-trade loss cap, then target, then trailing stop.
func (sm *stopManager) Check(ctx context.Context, pos *types.Position, price float64, cfg store.Config) string {
	if cfg.Risk.MaxLossPerTrade > 0 && pos.UnrealizedPnL(price) <= -cfg.Risk.MaxLossPerTrade {
		logger.Risk(ctx, pos.Index, "MAX_LOSS_PER_TRADE",
			"trade_id", pos.TradeID,
			"price", price,
			"entry", pos.EntryPrice,
			"unrealized", pos.UnrealizedPnL(price),
		)
		return "max_loss_per_trade"
	}
	if cfg.Stop.TargetPoints > 0 && price-pos.EntryPrice >= cfg.Stop.TargetPoints {
		return "target_hit"
	}
	if pos.TrailingStop > 0 && price <= pos.TrailingStop {
		reason := "trailing_sl_hit"
		if cfg.Stop.TrailStart <= 0 || pos.HighWater < cfg.Stop.TrailStart {
			reason = "initial_sl_hit"
		}
		logger.Risk(ctx, pos.Index, "STOP_LOSS_HIT",
			"trade_id", pos.TradeID,
			"price", price,
			"stop", pos.TrailingStop,
			"high_water", pos.HighWater,
		)
		return reason
	}
	return ""
}

// roundTick snaps a price to the exchange's 0.05 tick.
func roundTick(x float64) float64 {
	return math.Round(x/0.05) * 0.05
}
