package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"options-trading-bot/internal/interfaces"
	"options-trading-bot/internal/logger"
	"options-trading-bot/internal/market"
	"options-trading-bot/internal/metrics"
	"options-trading-bot/internal/store"
	"options-trading-bot/internal/trace"
	"options-trading-bot/internal/types"
)

const (
	feedGapWarn  = 30 * time.Second
	feedGapAlert = 3 * time.Minute
	watchdogTick = 5 * time.Second
)

// Journal receives each closed trade. The JSONL log and the sqlite
// store both implement it; journal errors never block the trade flow.
type Journal interface {
	Record(ctx context.Context, tr types.TradeRecord) error
}

// pipeline is one candle series with its indicators and signal rules.
// Single-leg mode runs one pipeline on the index; two-leg mode runs one
// per option premium series.
type pipeline struct {
	agg   *candleAggregator
	ind   *indicatorSet
	gen   *signalGenerator
	price func(types.Tick) float64
}

func (p *pipeline) covers(leg types.Leg) bool {
	return leg == p.gen.bullLeg || leg == p.gen.bearLeg
}

// Engine wires the tick feed through aggregation, indicators, signals,
// the risk gate and the position lifecycle. One evaluation runs at a
// time; the mutex also covers manual squareoffs.
type Engine struct {
	store    *store.Store
	broker   interfaces.Broker
	feed     interfaces.Feed
	bcast    interfaces.Broadcaster
	journals []Journal

	running atomic.Bool
	mu      sync.Mutex

	pipelines []*pipeline
	risk      *riskManager
	stops     *stopManager
	positions *positionManager

	summary     types.DailySummary
	lastSignal  types.Signal
	lastTick    types.Tick
	lastTickAt  time.Time
	interval    int
	strategy    string
	pendingExit string // exit reason awaiting a successful close retry
	gapAlerted  bool
}

func New(st *store.Store, broker interfaces.Broker, feed interfaces.Feed, bcast interfaces.Broadcaster, journals ...Journal) *Engine {
	if bcast == nil {
		bcast = interfaces.NoopBroadcaster{}
	}
	e := &Engine{
		store:     st,
		broker:    broker,
		feed:      feed,
		bcast:     bcast,
		journals:  journals,
		risk:      newRiskManager(),
		stops:     newStopManager(),
		positions: newPositionManager(broker),
	}
	e.rebuildPipelines(st.Snapshot())
	return e
}

func (e *Engine) rebuildPipelines(cfg store.Config) {
	e.interval = cfg.CandleInterval
	e.strategy = cfg.StrategyMode
	ind := cfg.Indicators
	mk := func(bull, bear types.Leg, price func(types.Tick) float64) *pipeline {
		return &pipeline{
			agg:   newCandleAggregator(cfg.CandleInterval),
			ind:   newIndicatorSet(ind.SuperTrendPeriod, ind.SuperTrendMult, ind.MACDFast, ind.MACDSlow, ind.MACDSignal),
			gen:   newSignalGenerator(bull, bear),
			price: price,
		}
	}
	if cfg.StrategyMode == store.StrategyTwoLeg {
		e.pipelines = []*pipeline{
			mk(types.LegCE, "", func(t types.Tick) float64 { return t.CE }),
			mk(types.LegPE, "", func(t types.Tick) float64 { return t.PE }),
		}
		return
	}
	e.pipelines = []*pipeline{
		mk(types.LegCE, types.LegPE, func(t types.Tick) float64 { return t.LTP }),
	}
}

// Running reports whether the tick loop is active.
func (e *Engine) Running() bool { return e.running.Load() }

// RestoreDay seeds the day's counters from a summary rebuilt out of
// persisted trades, so a mid-day restart cannot reset the trade count
// or un-latch the loss cap. Call before Run.
func (e *Engine) RestoreDay(sum types.DailySummary) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sum.Date == "" || sum.TradeCount == 0 {
		return
	}
	cfg := e.store.Snapshot()
	e.summary = sum
	e.risk.Restore(sum.TradeCount, sum.GrossPnL)
	e.summary.LossCapHit = e.risk.LossCapHit(cfg)

	logger.Info(context.Background(), "Day counters restored",
		"date", sum.Date,
		"trades", sum.TradeCount,
		"pnl", sum.GrossPnL,
		"loss_cap_hit", e.summary.LossCapHit,
	)
	metrics.DayPnL.Set(sum.GrossPnL)
}

// Run starts the broker and feed and consumes ticks until ctx is
// cancelled or the feed closes. Stopping halts evaluation only: an open
// position stays on the book for a manual squareoff or the next
// session's operator action.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	cfg := e.store.Snapshot()
	logger.Info(ctx, "Engine starting",
		"mode", cfg.Mode,
		"index", cfg.SelectedIndex,
		"strategy", cfg.StrategyMode,
		"candle_interval", cfg.CandleInterval,
	)

	if err := e.broker.Start(ctx); err != nil {
		return err
	}
	defer e.broker.Stop(context.Background())

	if err := e.feed.Start(ctx, cfg.SelectedIndex); err != nil {
		return err
	}
	defer e.feed.Stop(context.Background())

	watchdog := time.NewTicker(watchdogTick)
	defer watchdog.Stop()

	e.mu.Lock()
	e.lastTickAt = time.Now()
	e.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			e.logStopped()
			return nil
		case tick, ok := <-e.feed.Ticks():
			if !ok {
				logger.Warn(ctx, "Tick feed closed")
				e.logStopped()
				return nil
			}
			e.onTick(ctx, tick)
		case <-watchdog.C:
			e.checkFeedGap(ctx)
		}
	}
}

// logStopped announces the halt. A position left open is the operator's
// to deal with; stopping never places orders.
func (e *Engine) logStopped() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.positions.HasPosition() {
		pos := e.positions.Position()
		logger.Warn(context.Background(), "Engine stopped with open position",
			"trade_id", pos.TradeID,
			"state", pos.State.String(),
		)
		return
	}
	logger.Info(context.Background(), "Engine stopped")
}

// Squareoff manually flattens the open position.
func (e *Engine) Squareoff(ctx context.Context) error {
	if !e.running.Load() {
		return ErrNotRunning
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.positions.HasPosition() {
		return ErrNoPosition
	}
	cfg := e.store.Snapshot()
	price := e.positionPrice(cfg, e.lastTick)
	if price <= 0 {
		price = e.positions.Position().LastPrice
	}
	e.closePosition(ctx, cfg, price, "manual_squareoff", false, time.Now())
	return nil
}

func (e *Engine) onTick(ctx context.Context, tick types.Tick) {
	ctx, span := trace.StartSpan(ctx, "engine.tick")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	metrics.TicksTotal.Inc()
	metrics.FeedGapSeconds.Set(0)
	e.lastTick = tick
	e.lastTickAt = time.Now()
	e.gapAlerted = false

	cfg := e.store.Snapshot()

	// A close that failed earlier retries before anything else, day
	// rollover included: the trade still belongs to the session it was
	// triggered in.
	if pos := e.positions.Position(); pos != nil && pos.State == types.StateExiting {
		price := e.positionPrice(cfg, tick)
		if price <= 0 {
			price = pos.LastPrice
		}
		e.closePosition(ctx, cfg, price, e.pendingExit, false, tick.Ts)
		e.broadcast(ctx, cfg, tick)
		return
	}

	// Day rollover: fresh counters, fresh candles, fresh indicator state.
	if date := market.SessionDate(tick.Ts); e.summary.Date != date {
		e.rollDay(ctx, date)
	}

	// A config update that changes interval or strategy invalidates the
	// candle series mid-flight; rebuild rather than mix intervals.
	if cfg.CandleInterval != e.interval || cfg.StrategyMode != e.strategy {
		logger.Info(ctx, "Candle series rebuilt",
			"candle_interval", cfg.CandleInterval,
			"strategy", cfg.StrategyMode,
		)
		e.rebuildPipelines(cfg)
	}

	// Forced squareoff wins over every other evaluation step.
	if sq, err := market.ParseClock(cfg.Session.SquareoffTime); err == nil && sq.Reached(tick.Ts) {
		if e.positions.HasPosition() {
			price := e.positionPrice(cfg, tick)
			if price <= 0 {
				price = e.positions.Position().LastPrice
			}
			e.closePosition(ctx, cfg, price, "session_squareoff", false, tick.Ts)
		}
		e.broadcast(ctx, cfg, tick)
		return
	}

	// Tick-level position maintenance: trail first, then exit checks.
	if pos := e.positions.Position(); pos != nil && pos.State == types.StateOpen {
		if price := e.positionPrice(cfg, tick); price > 0 {
			e.stops.Update(ctx, pos, price, cfg)
			if reason := e.stops.Check(ctx, pos, price, cfg); reason != "" {
				e.closePosition(ctx, cfg, price, reason, false, tick.Ts)
			}
		}
	}

	for _, p := range e.pipelines {
		price := p.price(tick)
		if price <= 0 {
			continue
		}
		candle, done := p.agg.Add(tick, price)
		if !done {
			continue
		}
		metrics.CandlesTotal.Inc()
		snap := p.ind.Update(candle)

		var held types.Leg
		if pos := e.positions.Position(); pos != nil && p.covers(pos.Leg) {
			held = pos.Leg
		}
		sig := p.gen.Evaluate(snap, held)
		if sig.Kind != types.SignalNone {
			metrics.SignalsTotal.WithLabelValues(sig.Kind.String()).Inc()
			e.lastSignal = sig
			e.actOnSignal(ctx, cfg, tick, sig)
		}
	}

	e.broadcast(ctx, cfg, tick)
}

func (e *Engine) actOnSignal(ctx context.Context, cfg store.Config, tick types.Tick, sig types.Signal) {
	logger.Info(ctx, "Signal",
		"kind", sig.Kind.String(),
		"reason", sig.Reason,
		"ltp", tick.LTP,
	)

	if sig.Kind == types.SignalExit {
		pos := e.positions.Position()
		if pos == nil || pos.State != types.StateOpen {
			return
		}
		price := e.positionPrice(cfg, tick)
		if price <= 0 {
			price = pos.LastPrice
		}
		e.closePosition(ctx, cfg, price, sig.Reason, true, tick.Ts)
		return
	}

	leg, ok := sig.BuyLeg()
	if !ok {
		return
	}
	dec := e.risk.CheckEntry(ctx, tick.Ts, cfg, sig, e.positions.HasPosition())
	if !dec.Allow {
		metrics.EntriesBlockedTotal.WithLabelValues(dec.Reason).Inc()
		return
	}

	idx, _ := market.Lookup(cfg.SelectedIndex)
	refPrice := tick.LegPrice(leg)
	if refPrice <= 0 {
		refPrice = market.EstimateOptionPrice(tick.LTP, idx.RoundToStrike(tick.LTP), leg)
	}
	pos, err := e.positions.Enter(ctx, cfg, idx, leg, tick.LTP, refPrice, tick.Ts)
	if err != nil {
		metrics.OrderFailuresTotal.WithLabelValues("place").Inc()
		return
	}
	e.stops.Arm(pos, cfg)
	e.risk.RecordEntry(tick.Ts)
	metrics.PositionOpen.Set(1)
}

func (e *Engine) closePosition(ctx context.Context, cfg store.Config, price float64, reason string, strategyExit bool, now time.Time) {
	tr, err := e.positions.Close(ctx, price, reason, cfg.Mode, now)
	if err != nil {
		if err != ErrNoPosition {
			e.pendingExit = reason
			metrics.OrderFailuresTotal.WithLabelValues("close").Inc()
		}
		return
	}
	e.pendingExit = ""
	e.summary.Record(tr)
	e.risk.RecordExit(tr, strategyExit)
	e.summary.LossCapHit = e.risk.LossCapHit(cfg)

	metrics.PositionOpen.Set(0)
	metrics.TradesTotal.WithLabelValues(reason).Inc()
	metrics.DayPnL.Set(e.risk.RealizedPnL())

	for _, j := range e.journals {
		if jerr := j.Record(ctx, tr); jerr != nil {
			logger.ErrorWithErr(ctx, "Trade journal write failed", jerr, "trade_id", tr.TradeID)
		}
	}
}

// positionPrice returns the tradable price for the open position's leg
// on this tick. Live mode without the leg subscribed returns 0 and the
// caller skips tick-level exits; candle-close and squareoff paths still
// protect the position.
func (e *Engine) positionPrice(cfg store.Config, tick types.Tick) float64 {
	pos := e.positions.Position()
	if pos == nil || tick.Ts.IsZero() {
		return 0
	}
	if lp := tick.LegPrice(pos.Leg); lp > 0 {
		return lp
	}
	if cfg.Mode == store.ModePaper && tick.LTP > 0 {
		return market.EstimateOptionPrice(tick.LTP, pos.Strike, pos.Leg)
	}
	return 0
}

func (e *Engine) rollDay(ctx context.Context, date string) {
	if e.summary.Date != "" {
		logger.Info(ctx, "Session rollover",
			"prev_date", e.summary.Date,
			"date", date,
			"trades", e.summary.TradeCount,
			"pnl", e.summary.GrossPnL,
		)
	}
	e.summary = types.DailySummary{Date: date}
	e.risk.ResetDay()
	for _, p := range e.pipelines {
		p.agg.Reset(e.interval)
		p.ind.Reset()
		p.gen.Reset()
	}
	// A position still working its way out keeps its exit reason.
	if !e.positions.HasPosition() {
		e.pendingExit = ""
	}
	metrics.DayPnL.Set(0)
}

func (e *Engine) checkFeedGap(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastTickAt.IsZero() {
		return
	}
	gap := time.Since(e.lastTickAt)
	metrics.FeedGapSeconds.Set(gap.Seconds())
	if gap < feedGapWarn {
		return
	}
	if !market.IsOpen(time.Now()) {
		return
	}
	if gap >= feedGapAlert && !e.gapAlerted {
		e.gapAlerted = true
		logger.Alert(ctx, "engine", "Market feed stalled",
			"gap_seconds", gap.Seconds(),
			"last_tick", e.lastTickAt.Format(time.RFC3339),
		)
		return
	}
	logger.Warn(ctx, "No ticks received recently", "gap_seconds", gap.Seconds())
}

// Status projects the control-plane view.
func (e *Engine) Status() types.StatusSnapshot {
	cfg := e.store.Snapshot()
	status := "CLOSED"
	if market.IsOpen(time.Now()) {
		status = "OPEN"
	}
	return types.StatusSnapshot{
		Running:        e.running.Load(),
		Mode:           cfg.Mode,
		MarketStatus:   status,
		SelectedIndex:  cfg.SelectedIndex,
		CandleInterval: cfg.CandleInterval,
	}
}

// Snapshot returns the full broadcast projection. Safe to call from
// outside the tick loop.
func (e *Engine) Snapshot() types.StateSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := e.store.Snapshot()
	return e.buildSnapshot(cfg, e.lastTick)
}

func (e *Engine) broadcast(ctx context.Context, cfg store.Config, tick types.Tick) {
	e.bcast.Broadcast(ctx, e.buildSnapshot(cfg, tick))
}

func (e *Engine) buildSnapshot(cfg store.Config, tick types.Tick) types.StateSnapshot {
	ms := types.MarketSnapshot{
		Ts:     tick.Ts,
		LTP:    tick.LTP,
		Signal: e.lastSignal,
	}
	if cfg.StrategyMode == store.StrategyTwoLeg && len(e.pipelines) == 2 {
		ce := e.pipelines[0].ind.Last()
		pe := e.pipelines[1].ind.Last()
		ms.CE = &ce
		ms.PE = &pe
	} else if len(e.pipelines) > 0 {
		ms.Indicators = e.pipelines[0].ind.Last()
	}
	return types.StateSnapshot{
		Status:   e.Status(),
		Market:   ms,
		Position: e.positions.Snapshot(),
		Summary:  e.summary,
	}
}
