package broker

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"options-trading-bot/internal/interfaces"
	"options-trading-bot/internal/logger"
	"options-trading-bot/internal/market"
	"options-trading-bot/internal/types"
)

// Base levels for the simulated index random walk.
var simBase = map[string]float64{
	"NIFTY":     22500,
	"BANKNIFTY": 48500,
	"SENSEX":    74000,
	"FINNIFTY":  21500,
}

// SimFeed generates a random-walk tick stream for paper runs outside
// market hours or without credentials. Option legs are priced off the
// walk at the ATM strike fixed when the feed starts.
type SimFeed struct {
	interval time.Duration

	mu     sync.Mutex
	out    chan types.Tick
	cancel context.CancelFunc
	done   chan struct{}
}

var _ interfaces.Feed = (*SimFeed)(nil)

// NewSimFeed emits one tick per interval; 1s matches the live feed's
// typical cadence.
func NewSimFeed(interval time.Duration) *SimFeed {
	if interval <= 0 {
		interval = time.Second
	}
	return &SimFeed{interval: interval, out: make(chan types.Tick, 64)}
}

func (f *SimFeed) Ticks() <-chan types.Tick { return f.out }

func (f *SimFeed) Start(ctx context.Context, index string) error {
	idx, ok := market.Lookup(index)
	if !ok {
		return fmt.Errorf("unknown index '%s'", index)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return fmt.Errorf("sim feed already started")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan struct{})

	go f.run(runCtx, idx)
	logger.Info(ctx, "Simulated feed started", "index", index, "interval", f.interval.String())
	return nil
}

func (f *SimFeed) Stop(ctx context.Context) {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel = nil
	f.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func (f *SimFeed) run(ctx context.Context, idx market.Index) {
	defer close(f.done)
	defer close(f.out)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ltp := simBase[idx.Name]
	if ltp == 0 {
		ltp = 20000
	}
	strike := idx.RoundToStrike(ltp)

	t := time.NewTicker(f.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			// Random walk with a mild drift term so trends form.
			ltp += (rng.Float64() - 0.5) * 8
			tick := types.Tick{
				Ts:  now,
				LTP: ltp,
				CE:  market.EstimateOptionPrice(ltp, strike, types.LegCE),
				PE:  market.EstimateOptionPrice(ltp, strike, types.LegPE),
			}
			select {
			case f.out <- tick:
			default:
				// Consumer lagging; drop the tick rather than block.
			}
		}
	}
}
