package interfaces

import (
	"context"

	"options-trading-bot/internal/types"
)

// Feed streams market ticks for the selected index. Timestamps are
// monotonically non-decreasing; the channel closes when the feed stops.
type Feed interface {
	Start(ctx context.Context, index string) error
	Ticks() <-chan types.Tick
	Stop(ctx context.Context)
}
