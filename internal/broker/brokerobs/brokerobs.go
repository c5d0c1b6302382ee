package brokerobs

import (
	"context"
	"time"

	"options-trading-bot/internal/interfaces"
	"options-trading-bot/internal/logger"
	"options-trading-bot/internal/trace"
	"options-trading-bot/internal/types"
)

type observableBroker struct {
	broker interfaces.Broker
}

var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap adds spans and timing logs around every broker call.
func Wrap(b interfaces.Broker) interfaces.Broker {
	return &observableBroker{broker: b}
}

func (ob *observableBroker) Start(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "broker.Start")
	defer span.End()
	return ob.broker.Start(ctx)
}

func (ob *observableBroker) Stop(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "broker.Stop")
	defer span.End()
	ob.broker.Stop(ctx)
}

func (ob *observableBroker) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()

	start := time.Now()
	resp, err := ob.broker.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Order placement failed", err,
			"index", req.Index,
			"leg", string(req.Leg),
			"strike", req.Strike,
			"qty", req.Qty,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
	logger.Info(ctx, "Order placed",
		"order_id", resp.OrderID,
		"index", req.Index,
		"leg", string(req.Leg),
		"strike", req.Strike,
		"side", req.Side,
		"qty", req.Qty,
		"fill", resp.FillPrice,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (ob *observableBroker) CloseOrder(ctx context.Context, pos *types.Position, ltp float64) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.CloseOrder")
	defer span.End()

	start := time.Now()
	resp, err := ob.broker.CloseOrder(ctx, pos, ltp)
	if err != nil {
		logger.ErrorWithErr(ctx, "Order close failed", err,
			"trade_id", pos.TradeID,
			"ltp", ltp,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
	logger.Info(ctx, "Position order closed",
		"order_id", resp.OrderID,
		"trade_id", pos.TradeID,
		"fill", resp.FillPrice,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}
