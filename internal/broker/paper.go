package broker

import (
	"context"
	"fmt"
	"sync/atomic"

	"options-trading-bot/internal/interfaces"
	"options-trading-bot/internal/logger"
	"options-trading-bot/internal/types"
)

// Paper simulates the broker for paper mode. Buys fill at the request's
// reference price, closes fill at the passed LTP; there is no slippage
// model and no rejection path.
type Paper struct {
	seq atomic.Int64
}

var _ interfaces.Broker = (*Paper)(nil)

func NewPaper() *Paper { return &Paper{} }

func (p *Paper) Start(ctx context.Context) error {
	logger.Info(ctx, "Paper broker started")
	return nil
}

func (p *Paper) Stop(ctx context.Context) {}

func (p *Paper) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if req.Price <= 0 {
		return types.OrderResp{}, fmt.Errorf("paper order needs a reference price, got %.2f", req.Price)
	}
	id := fmt.Sprintf("PAPER-%d", p.seq.Add(1))
	logger.Debug(ctx, "Paper order filled",
		"order_id", id,
		"index", req.Index,
		"leg", string(req.Leg),
		"strike", req.Strike,
		"side", req.Side,
		"qty", req.Qty,
		"price", req.Price,
	)
	return types.OrderResp{OrderID: id, FillPrice: req.Price, Status: "COMPLETE"}, nil
}

func (p *Paper) CloseOrder(ctx context.Context, pos *types.Position, ltp float64) (types.OrderResp, error) {
	if ltp <= 0 {
		return types.OrderResp{}, fmt.Errorf("paper close needs a price, got %.2f", ltp)
	}
	id := fmt.Sprintf("PAPER-%d", p.seq.Add(1))
	return types.OrderResp{OrderID: id, FillPrice: ltp, Status: "COMPLETE"}, nil
}
