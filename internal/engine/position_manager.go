package engine

import (
	"context"
	"fmt"
	"time"

	"options-trading-bot/internal/interfaces"
	"options-trading-bot/internal/logger"
	"options-trading-bot/internal/market"
	"options-trading-bot/internal/store"
	"options-trading-bot/internal/types"
)

const (
	closeAttempts = 3
	closeBackoff  = 500 * time.Millisecond
)

// positionManager owns the single position's lifecycle:
// IDLE -> ENTERING -> OPEN -> EXITING -> IDLE. A rejected entry returns
// to IDLE with no position; a failed close leaves the position in
// EXITING so the next tick retries.
type positionManager struct {
	broker interfaces.Broker
	pos    *types.Position
	seq    int
}

func newPositionManager(broker interfaces.Broker) *positionManager {
	return &positionManager{broker: broker}
}

func (pm *positionManager) Position() *types.Position { return pm.pos }
func (pm *positionManager) HasPosition() bool         { return pm.pos != nil }

// Enter selects the ATM strike and expiry for the leg, places a buy
// order and opens the position at the confirmed fill. spot prices the
// strike; refPrice is the option reference used for paper fills.
func (pm *positionManager) Enter(ctx context.Context, cfg store.Config, idx market.Index, leg types.Leg, spot, refPrice float64, now time.Time) (*types.Position, error) {
	if pm.pos != nil {
		return nil, fmt.Errorf("position already open: %s", pm.pos.TradeID)
	}

	strike := idx.RoundToStrike(spot)
	expiry := idx.NextExpiry(now).Format("2006-01-02")
	qty := cfg.OrderQty * idx.LotSize
	pm.seq++
	tradeID := fmt.Sprintf("%s-%04d", now.In(market.IST).Format("20060102"), pm.seq)

	pm.pos = &types.Position{
		TradeID: tradeID,
		Index:   idx.Name,
		Leg:     leg,
		Strike:  strike,
		Expiry:  expiry,
		Qty:     qty,
		State:   types.StateEntering,
	}

	resp, err := pm.broker.PlaceOrder(ctx, types.OrderReq{
		Index:  idx.Name,
		Leg:    leg,
		Strike: strike,
		Expiry: expiry,
		Side:   "BUY",
		Qty:    qty,
		Price:  refPrice,
		Tag:    tradeID,
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Entry order rejected", err,
			"trade_id", tradeID,
			"index", idx.Name,
			"leg", string(leg),
			"strike", strike,
		)
		pm.pos = nil
		return nil, fmt.Errorf("%w: %v", ErrOrderRejected, err)
	}

	pm.pos.EntryPrice = resp.FillPrice
	pm.pos.EntryTime = now
	pm.pos.LastPrice = resp.FillPrice
	pm.pos.State = types.StateOpen

	logger.Trade(ctx, idx.Name, string(leg), qty, resp.FillPrice, resp.OrderID,
		"trade_id", tradeID,
		"side", "BUY",
		"strike", strike,
		"expiry", expiry,
	)
	return pm.pos, nil
}

// Close flattens the open position at ltp and returns the journal
// record. Broker failures are retried with backoff while holding the
// position in EXITING; after the last attempt an operator alert fires
// and the caller is expected to retry on the next tick.
func (pm *positionManager) Close(ctx context.Context, price float64, reason, mode string, now time.Time) (types.TradeRecord, error) {
	if pm.pos == nil {
		return types.TradeRecord{}, ErrNoPosition
	}
	pos := pm.pos
	pos.State = types.StateExiting

	var resp types.OrderResp
	var err error
	for attempt := 1; attempt <= closeAttempts; attempt++ {
		resp, err = pm.broker.CloseOrder(ctx, pos, price)
		if err == nil {
			break
		}
		logger.ErrorWithErr(ctx, "Close order failed", err,
			"trade_id", pos.TradeID,
			"attempt", attempt,
			"reason", reason,
		)
		if attempt == closeAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return types.TradeRecord{}, ctx.Err()
		case <-time.After(closeBackoff << (attempt - 1)):
		}
	}
	if err != nil {
		logger.Alert(ctx, "position_manager", "Position stuck in EXITING, close keeps failing",
			"trade_id", pos.TradeID,
			"attempts", closeAttempts,
			"reason", reason,
		)
		return types.TradeRecord{}, &OrderCloseFailedError{TradeID: pos.TradeID, Attempts: closeAttempts, Err: err}
	}

	tr := types.TradeRecord{
		TradeID:    pos.TradeID,
		Index:      pos.Index,
		Leg:        pos.Leg,
		Strike:     pos.Strike,
		Expiry:     pos.Expiry,
		Qty:        pos.Qty,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  resp.FillPrice,
		PnL:        (resp.FillPrice - pos.EntryPrice) * float64(pos.Qty),
		ExitReason: reason,
		EntryTime:  pos.EntryTime,
		ExitTime:   now,
		Mode:       mode,
	}
	pm.pos = nil

	logger.Trade(ctx, tr.Index, string(tr.Leg), tr.Qty, tr.ExitPrice, resp.OrderID,
		"trade_id", tr.TradeID,
		"side", "SELL",
		"pnl", tr.PnL,
		"exit_reason", reason,
	)
	return tr, nil
}

// Snapshot projects the position for broadcast. Safe on a nil position.
func (pm *positionManager) Snapshot() types.PositionSnapshot {
	if pm.pos == nil {
		return types.PositionSnapshot{State: types.StateIdle.String()}
	}
	p := pm.pos
	return types.PositionSnapshot{
		Open:          true,
		Leg:           p.Leg,
		Strike:        p.Strike,
		Expiry:        p.Expiry,
		Qty:           p.Qty,
		EntryPrice:    p.EntryPrice,
		LastPrice:     p.LastPrice,
		UnrealizedPnL: p.UnrealizedPnL(p.LastPrice),
		TrailingStop:  p.TrailingStop,
		State:         p.State.String(),
	}
}
