package interfaces

import (
	"context"

	"options-trading-bot/internal/types"
)

// Broadcaster receives the read-only state snapshot after each
// evaluation. The dashboard's WS layer implements this; the engine never
// blocks on it for correctness.
type Broadcaster interface {
	Broadcast(ctx context.Context, snap types.StateSnapshot)
}

// NoopBroadcaster discards snapshots. Used in tests and headless runs.
type NoopBroadcaster struct{}

func (NoopBroadcaster) Broadcast(context.Context, types.StateSnapshot) {}

var _ Broadcaster = NoopBroadcaster{}
