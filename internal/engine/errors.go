package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Run when the engine is active.
	ErrAlreadyRunning = errors.New("engine already running")

	// ErrNotRunning is returned by control operations on a stopped engine.
	ErrNotRunning = errors.New("engine not running")

	// ErrNoPosition is returned when an exit is requested with nothing open.
	ErrNoPosition = errors.New("no open position")

	// ErrOrderRejected wraps a broker rejection of an entry order.
	ErrOrderRejected = errors.New("order rejected")
)

// OrderCloseFailedError reports that every close attempt for an open
// position failed. The position stays in EXITING and the next tick
// retries; the operator alert has already fired by the time this is
// returned.
type OrderCloseFailedError struct {
	TradeID  string
	Attempts int
	Err      error
}

func (e *OrderCloseFailedError) Error() string {
	return fmt.Sprintf("close failed for trade %s after %d attempts: %v", e.TradeID, e.Attempts, e.Err)
}

func (e *OrderCloseFailedError) Unwrap() error { return e.Err }
