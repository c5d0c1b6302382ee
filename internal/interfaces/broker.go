package interfaces

import (
	"context"

	"options-trading-bot/internal/types"
)

// Broker places and closes option orders. PlaceOrder confirms a fill or
// returns an error (rejection); CloseOrder flattens the given position.
// Implementations: paper simulator and the Zerodha live client.
type Broker interface {
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
	CloseOrder(ctx context.Context, pos *types.Position, ltp float64) (types.OrderResp, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}
