package zerodha

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zerodha/gokiteconnect/v4/models"
	kiteticker "github.com/zerodha/gokiteconnect/v4/ticker"

	"options-trading-bot/internal/interfaces"
	"options-trading-bot/internal/logger"
	"options-trading-bot/internal/market"
	"options-trading-bot/internal/types"
)

// TickerFeed streams live index ticks over the Kite WebSocket. Only the
// index instrument is subscribed; option legs are priced at order time
// from the exchange quote.
type TickerFeed struct {
	apiKey      string
	accessToken string

	mu     sync.Mutex
	ticker *kiteticker.Ticker
	token  uint32
	out    chan types.Tick
}

var _ interfaces.Feed = (*TickerFeed)(nil)

func NewTickerFeed(apiKey, accessToken string) *TickerFeed {
	return &TickerFeed{
		apiKey:      apiKey,
		accessToken: accessToken,
		out:         make(chan types.Tick, 256),
	}
}

func (f *TickerFeed) Ticks() <-chan types.Tick { return f.out }

func (f *TickerFeed) Start(ctx context.Context, index string) error {
	idx, ok := market.Lookup(index)
	if !ok {
		return fmt.Errorf("unknown index '%s'", index)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ticker != nil {
		return fmt.Errorf("ticker feed already started")
	}
	f.token = idx.Token

	f.ticker = kiteticker.New(f.apiKey, f.accessToken)
	f.ticker.OnConnect(f.onConnect)
	f.ticker.OnError(f.onError)
	f.ticker.OnClose(f.onClose)
	f.ticker.OnReconnect(f.onReconnect)
	f.ticker.OnNoReconnect(f.onNoReconnect)
	f.ticker.OnTick(f.onTick)

	go func() {
		logger.Info(ctx, "Starting Zerodha WebSocket ticker", "index", index, "token", idx.Token)
		f.ticker.Serve()
	}()
	return nil
}

func (f *TickerFeed) Stop(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ticker == nil {
		return
	}
	logger.Info(ctx, "Stopping Zerodha WebSocket ticker")
	f.ticker.Stop()
	f.ticker = nil
	// The channel stays open: ws callbacks may still be in flight and
	// the consumer exits on its own context, not on channel close.
}

func (f *TickerFeed) onConnect() {
	f.mu.Lock()
	tk := f.ticker
	f.mu.Unlock()
	if tk == nil {
		return
	}
	logger.Info(context.Background(), "WebSocket connected")
	if err := tk.Subscribe([]uint32{f.token}); err != nil {
		logger.ErrorWithErr(context.Background(), "Subscribe failed", err, "token", f.token)
		return
	}
	if err := tk.SetMode(kiteticker.ModeLTP, []uint32{f.token}); err != nil {
		logger.ErrorWithErr(context.Background(), "SetMode failed", err, "token", f.token)
	}
}

func (f *TickerFeed) onTick(t models.Tick) {
	if t.InstrumentToken != f.token {
		return
	}
	ts := t.Timestamp.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	tick := types.Tick{Ts: ts, LTP: t.LastPrice}
	select {
	case f.out <- tick:
	default:
		// Consumer lagging; drop rather than block the ws read loop.
	}
}

func (f *TickerFeed) onError(err error) {
	logger.ErrorWithErr(context.Background(), "WebSocket error", err)
}

func (f *TickerFeed) onClose(code int, reason string) {
	logger.Warn(context.Background(), "WebSocket closed", "code", code, "reason", reason)
}

func (f *TickerFeed) onReconnect(attempt int, delay time.Duration) {
	logger.Info(context.Background(), "WebSocket reconnecting", "attempt", attempt, "delay", delay.String())
}

func (f *TickerFeed) onNoReconnect(attempt int) {
	logger.Alert(context.Background(), "ticker", "WebSocket reconnection exhausted", "attempt", attempt)
}
