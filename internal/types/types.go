package types

import "time"

// Leg identifies the option side of a trade.
type Leg string

const (
	LegCE Leg = "CE"
	LegPE Leg = "PE"
)

// Tick is one market-feed sample. LTP is the index last traded price.
// CE/PE carry the option leg prices when the feed has them subscribed;
// zero means absent.
type Tick struct {
	Ts  time.Time
	LTP float64
	CE  float64
	PE  float64
}

// LegPrice returns the option price for the given leg, or 0 if the feed
// did not carry it on this tick.
func (t Tick) LegPrice(leg Leg) float64 {
	if leg == LegPE {
		return t.PE
	}
	return t.CE
}

// Candle is a closed OHLC bar. Immutable once finalized by the aggregator.
type Candle struct {
	Open, High, Low, Close float64
	Start, End             time.Time
}

// IndicatorSnapshot is the indicator state after one closed candle.
// Ready is false until both indicators have enough candles; no numeric
// field is meaningful while Ready is false.
type IndicatorSnapshot struct {
	Ready bool `json:"ready"`

	SuperTrend    float64 `json:"supertrend_value"`
	SuperTrendDir int     `json:"supertrend_direction"` // +1 bullish, -1 bearish
	Flipped       bool    `json:"supertrend_flipped"`

	MACD       float64 `json:"macd_value"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`
}

// SignalKind is the discrete outcome of one candle-close evaluation.
type SignalKind int

const (
	SignalNone SignalKind = iota
	SignalBuyCE
	SignalBuyPE
	SignalExit
)

func (k SignalKind) String() string {
	switch k {
	case SignalBuyCE:
		return "BUY_CE"
	case SignalBuyPE:
		return "BUY_PE"
	case SignalExit:
		return "EXIT"
	}
	return "NONE"
}

// Signal pairs the outcome with the condition that produced it.
type Signal struct {
	Kind   SignalKind `json:"kind"`
	Reason string     `json:"reason"` // e.g. "supertrend_flip", "macd_cross"
}

// BuyLeg reports whether the signal asks for a new entry, and on which leg.
func (s Signal) BuyLeg() (Leg, bool) {
	switch s.Kind {
	case SignalBuyCE:
		return LegCE, true
	case SignalBuyPE:
		return LegPE, true
	}
	return "", false
}

// PositionState is the lifecycle stage of the single position.
type PositionState int

const (
	StateIdle PositionState = iota
	StateEntering
	StateOpen
	StateExiting
)

func (s PositionState) String() string {
	switch s {
	case StateEntering:
		return "ENTERING"
	case StateOpen:
		return "OPEN"
	case StateExiting:
		return "EXITING"
	}
	return "IDLE"
}

// Position is the single active position. At most one exists at a time.
type Position struct {
	TradeID    string
	Index      string
	Leg        Leg
	Strike     int
	Expiry     string
	Qty        int // contracts (lots * lot size)
	EntryPrice float64
	EntryTime  time.Time

	// Running exit state, updated every tick while open.
	LastPrice    float64
	HighWater    float64 // best profit in points since entry
	TrailingStop float64 // armed stop price; 0 = not armed
	State        PositionState
}

// UnrealizedPnL is (price - entry) * qty. Both legs are held long, so the
// formula is the same for CE and PE.
func (p *Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * float64(p.Qty)
}

// TradeRecord is the append-only journal entry created when a position
// closes. Never mutated after creation.
type TradeRecord struct {
	TradeID    string    `json:"trade_id"`
	Index      string    `json:"index"`
	Leg        Leg       `json:"leg"`
	Strike     int       `json:"strike"`
	Expiry     string    `json:"expiry"`
	Qty        int       `json:"qty"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	PnL        float64   `json:"pnl"`
	ExitReason string    `json:"exit_reason"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	Mode       string    `json:"mode"`
}

// DailySummary aggregates the current trading day's closed trades.
// Reset only at session rollover, never mid-day.
type DailySummary struct {
	Date        string  `json:"date"` // IST date, 2006-01-02
	TradeCount  int     `json:"trade_count"`
	GrossPnL    float64 `json:"gross_pnl"`
	WinCount    int     `json:"win_count"`
	LossCount   int     `json:"loss_count"`
	MaxDrawdown float64 `json:"max_drawdown"`
	LossCapHit  bool    `json:"loss_cap_hit"`
}

// Record folds one closed trade into the summary.
func (d *DailySummary) Record(tr TradeRecord) {
	d.TradeCount++
	d.GrossPnL += tr.PnL
	if tr.PnL >= 0 {
		d.WinCount++
	} else {
		d.LossCount++
		if -tr.PnL > d.MaxDrawdown {
			d.MaxDrawdown = -tr.PnL
		}
	}
}

// OrderReq asks the broker to trade one option contract.
type OrderReq struct {
	Index  string
	Leg    Leg
	Strike int
	Expiry string
	Side   string  // "BUY" or "SELL"
	Qty    int
	Price  float64 // reference price; paper fills happen here, live orders go at market
	Tag    string
}

// OrderResp is the broker confirmation. FillPrice is the average fill.
type OrderResp struct {
	OrderID   string  `json:"order_id"`
	FillPrice float64 `json:"fill_price"`
	Status    string  `json:"status"`
}

// StatusSnapshot is the read-only control-plane projection.
type StatusSnapshot struct {
	Running        bool   `json:"is_running"`
	Mode           string `json:"mode"`
	MarketStatus   string `json:"market_status"`
	SelectedIndex  string `json:"selected_index"`
	CandleInterval int    `json:"candle_interval"`
}

// MarketSnapshot is the read-only market projection after an evaluation.
// CE/PE are nil outside two-leg mode.
type MarketSnapshot struct {
	Ts         time.Time          `json:"timestamp"`
	LTP        float64            `json:"ltp"`
	Indicators IndicatorSnapshot  `json:"indicators"`
	CE         *IndicatorSnapshot `json:"ce,omitempty"`
	PE         *IndicatorSnapshot `json:"pe,omitempty"`
	Signal     Signal             `json:"signal"`
}

// StateSnapshot bundles the projections broadcast after each evaluation.
// It is a value copy; observers may consume it concurrently.
type StateSnapshot struct {
	Status   StatusSnapshot   `json:"status"`
	Market   MarketSnapshot   `json:"market"`
	Position PositionSnapshot `json:"position"`
	Summary  DailySummary     `json:"daily_summary"`
}

// PositionSnapshot is the read-only position projection.
type PositionSnapshot struct {
	Open          bool    `json:"open"`
	Leg           Leg     `json:"leg,omitempty"`
	Strike        int     `json:"strike,omitempty"`
	Expiry        string  `json:"expiry,omitempty"`
	Qty           int     `json:"qty,omitempty"`
	EntryPrice    float64 `json:"entry_price,omitempty"`
	LastPrice     float64 `json:"current_ltp,omitempty"`
	UnrealizedPnL float64 `json:"unrealized_pnl,omitempty"`
	TrailingStop  float64 `json:"trailing_sl,omitempty"`
	State         string  `json:"state"`
}
