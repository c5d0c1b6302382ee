package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"options-trading-bot/internal/market"
)

// Valid candle intervals in seconds: 5s, 15s, 30s, 1m, 5m, 15m.
var ValidTimeframes = []int{5, 15, 30, 60, 300, 900}

const (
	ModePaper = "paper"
	ModeLive  = "live"

	StrategySingleLeg = "single_leg"
	StrategyTwoLeg    = "two_leg"
)

type Config struct {
	Mode          string `yaml:"mode"`           // paper | live
	SelectedIndex string `yaml:"selected_index"` // NIFTY, BANKNIFTY, SENSEX, FINNIFTY
	StrategyMode  string `yaml:"strategy_mode"`  // single_leg | two_leg

	CandleInterval int `yaml:"candle_interval"` // seconds
	OrderQty       int `yaml:"order_qty"`       // lots; multiplied by index lot size

	Risk struct {
		MaxTradesPerDay int     `yaml:"max_trades_per_day"`
		DailyMaxLoss    float64 `yaml:"daily_max_loss"`
		MaxLossPerTrade float64 `yaml:"max_loss_per_trade"` // rupees, 0 = disabled
	} `yaml:"risk"`

	Stop struct {
		InitialStoploss float64 `yaml:"initial_stoploss"`     // points below entry, 0 = disabled
		TrailStart      float64 `yaml:"trail_start_profit"`   // points of profit that arm the trail
		TrailStep       float64 `yaml:"trail_step"`           // ratchet increment, 0 = continuous
		TrailDistance   float64 `yaml:"trailing_sl_distance"` // points behind the high-water mark
		TargetPoints    float64 `yaml:"target_points"`        // 0 = disabled
	} `yaml:"stop"`

	Session struct {
		EntryStart    string `yaml:"entry_start"`    // default 09:25
		EntryCutoff   string `yaml:"entry_cutoff"`   // default 15:10
		SquareoffTime string `yaml:"squareoff_time"` // default 15:25
		MinTradeGap   int    `yaml:"min_trade_gap"`  // seconds between entries, 0 = disabled
	} `yaml:"session"`

	Indicators struct {
		SuperTrendPeriod int     `yaml:"supertrend_period"`
		SuperTrendMult   float64 `yaml:"supertrend_multiplier"`
		MACDFast         int     `yaml:"macd_fast"`
		MACDSlow         int     `yaml:"macd_slow"`
		MACDSignal       int     `yaml:"macd_signal"`
	} `yaml:"indicators"`

	DataDir     string `yaml:"data_dir"`
	MetricsAddr string `yaml:"metrics_addr"` // empty = no scrape endpoint
}

// ValidationError reports a rejected config field. The update boundary
// returns it and keeps the prior config in effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s: %s", e.Field, e.Reason)
}

func (c *Config) Validate() error {
	if c.Mode != ModePaper && c.Mode != ModeLive {
		return &ValidationError{"mode", fmt.Sprintf("must be '%s' or '%s', got '%s'", ModePaper, ModeLive, c.Mode)}
	}
	if c.StrategyMode != StrategySingleLeg && c.StrategyMode != StrategyTwoLeg {
		return &ValidationError{"strategy_mode", fmt.Sprintf("must be '%s' or '%s', got '%s'", StrategySingleLeg, StrategyTwoLeg, c.StrategyMode)}
	}
	if _, ok := market.Lookup(c.SelectedIndex); !ok {
		return &ValidationError{"selected_index", fmt.Sprintf("unknown index '%s'", c.SelectedIndex)}
	}
	if !validInterval(c.CandleInterval) {
		return &ValidationError{"candle_interval", fmt.Sprintf("must be one of %v seconds, got %d", ValidTimeframes, c.CandleInterval)}
	}
	if c.OrderQty <= 0 {
		return &ValidationError{"order_qty", fmt.Sprintf("must be positive, got %d", c.OrderQty)}
	}
	if c.Risk.MaxTradesPerDay <= 0 {
		return &ValidationError{"risk.max_trades_per_day", fmt.Sprintf("must be positive, got %d", c.Risk.MaxTradesPerDay)}
	}
	if c.Risk.DailyMaxLoss < 0 {
		return &ValidationError{"risk.daily_max_loss", fmt.Sprintf("must not be negative, got %.2f", c.Risk.DailyMaxLoss)}
	}
	if c.Risk.MaxLossPerTrade < 0 {
		return &ValidationError{"risk.max_loss_per_trade", fmt.Sprintf("must not be negative, got %.2f", c.Risk.MaxLossPerTrade)}
	}
	if c.Stop.InitialStoploss < 0 || c.Stop.TrailStart < 0 || c.Stop.TrailStep < 0 ||
		c.Stop.TrailDistance < 0 || c.Stop.TargetPoints < 0 {
		return &ValidationError{"stop", "stop-loss and target values must not be negative"}
	}
	// Step mode trails by trail_step increments; the distance only matters
	// for the continuous trail.
	if c.Stop.TrailStart > 0 && c.Stop.TrailStep == 0 && c.Stop.TrailDistance <= 0 {
		return &ValidationError{"stop.trailing_sl_distance", "must be positive when trail_start_profit is set and trail_step is 0"}
	}
	for _, f := range []struct{ name, v string }{
		{"session.entry_start", c.Session.EntryStart},
		{"session.entry_cutoff", c.Session.EntryCutoff},
		{"session.squareoff_time", c.Session.SquareoffTime},
	} {
		if _, err := market.ParseClock(f.v); err != nil {
			return &ValidationError{f.name, err.Error()}
		}
	}
	if c.Indicators.SuperTrendPeriod <= 0 || c.Indicators.SuperTrendMult <= 0 {
		return &ValidationError{"indicators", "supertrend period and multiplier must be positive"}
	}
	if c.Indicators.MACDFast <= 0 || c.Indicators.MACDSlow <= c.Indicators.MACDFast || c.Indicators.MACDSignal <= 0 {
		return &ValidationError{"indicators", "macd periods must be positive with slow > fast"}
	}
	return nil
}

func validInterval(sec int) bool {
	for _, v := range ValidTimeframes {
		if v == sec {
			return true
		}
	}
	return false
}

func setDefaults(c *Config) {
	if c.Mode == "" {
		c.Mode = ModePaper // paper by default for safety
	}
	if c.SelectedIndex == "" {
		c.SelectedIndex = "NIFTY"
	}
	if c.StrategyMode == "" {
		c.StrategyMode = StrategySingleLeg
	}
	if c.CandleInterval == 0 {
		c.CandleInterval = 5
	}
	if c.OrderQty == 0 {
		c.OrderQty = 1
	}
	if c.Risk.MaxTradesPerDay == 0 {
		c.Risk.MaxTradesPerDay = 5
	}
	if c.Risk.DailyMaxLoss == 0 {
		c.Risk.DailyMaxLoss = 2000
	}
	if c.Session.EntryStart == "" {
		c.Session.EntryStart = "09:25"
	}
	if c.Session.EntryCutoff == "" {
		c.Session.EntryCutoff = "15:10"
	}
	if c.Session.SquareoffTime == "" {
		c.Session.SquareoffTime = "15:25"
	}
	if c.Indicators.SuperTrendPeriod == 0 {
		c.Indicators.SuperTrendPeriod = 7
	}
	if c.Indicators.SuperTrendMult == 0 {
		c.Indicators.SuperTrendMult = 4
	}
	if c.Indicators.MACDFast == 0 {
		c.Indicators.MACDFast = 12
	}
	if c.Indicators.MACDSlow == 0 {
		c.Indicators.MACDSlow = 26
	}
	if c.Indicators.MACDSignal == 0 {
		c.Indicators.MACDSignal = 9
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	setDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns a validated config with all defaults applied. Used by
// tests and paper runs without a config file.
func Default() Config {
	var c Config
	setDefaults(&c)
	return c
}
