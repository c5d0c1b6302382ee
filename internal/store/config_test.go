package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	c := Default()

	if c.Mode != ModePaper {
		t.Errorf("default mode should be paper, got %s", c.Mode)
	}
	if c.SelectedIndex != "NIFTY" || c.CandleInterval != 5 || c.OrderQty != 1 {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.Risk.MaxTradesPerDay != 5 || c.Risk.DailyMaxLoss != 2000 {
		t.Errorf("unexpected risk defaults: %+v", c.Risk)
	}
	if c.Indicators.SuperTrendPeriod != 7 || c.Indicators.SuperTrendMult != 4 {
		t.Errorf("unexpected supertrend defaults: %+v", c.Indicators)
	}
	if c.Indicators.MACDFast != 12 || c.Indicators.MACDSlow != 26 || c.Indicators.MACDSignal != 9 {
		t.Errorf("unexpected macd defaults: %+v", c.Indicators)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad mode", func(c *Config) { c.Mode = "LIVE!" }, "mode"},
		{"bad index", func(c *Config) { c.SelectedIndex = "DOWJONES" }, "selected_index"},
		{"bad interval", func(c *Config) { c.CandleInterval = 7 }, "candle_interval"},
		{"zero qty", func(c *Config) { c.OrderQty = -1 }, "order_qty"},
		{"negative loss cap", func(c *Config) { c.Risk.DailyMaxLoss = -5 }, "risk.daily_max_loss"},
		{"bad clock", func(c *Config) { c.Session.EntryCutoff = "25:99" }, "session.entry_cutoff"},
		{"macd slow <= fast", func(c *Config) { c.Indicators.MACDSlow = 12 }, "indicators"},
		{"continuous trail without distance", func(c *Config) {
			c.Stop.TrailStart = 20
			c.Stop.TrailStep = 0
			c.Stop.TrailDistance = 0
		}, "stop.trailing_sl_distance"},
	}

	for _, tc := range cases {
		c := Default()
		tc.mutate(&c)
		err := c.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", tc.name)
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %T", tc.name, err)
			continue
		}
		if verr.Field != tc.field {
			t.Errorf("%s: expected field %s, got %s", tc.name, tc.field, verr.Field)
		}
	}
}

func TestValidateStepTrailNeedsNoDistance(t *testing.T) {
	c := Default()
	c.Stop.TrailStart = 20
	c.Stop.TrailStep = 10
	c.Stop.TrailDistance = 0
	if err := c.Validate(); err != nil {
		t.Fatalf("step trail does not use the distance, got %v", err)
	}
}

func TestStoreUpdateKeepsPriorOnFailure(t *testing.T) {
	st := NewStore(Default())

	bad := st.Snapshot()
	bad.CandleInterval = 42
	if err := st.Update(bad); err == nil {
		t.Fatal("expected rejection of invalid interval")
	}
	if got := st.Snapshot().CandleInterval; got != 5 {
		t.Fatalf("prior config should remain in effect, got interval %d", got)
	}

	good := st.Snapshot()
	good.CandleInterval = 60
	good.SelectedIndex = "SENSEX"
	if err := st.Update(good); err != nil {
		t.Fatalf("valid update rejected: %v", err)
	}
	snap := st.Snapshot()
	if snap.CandleInterval != 60 || snap.SelectedIndex != "SENSEX" {
		t.Fatalf("update not applied: %+v", snap)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
mode: paper
selected_index: BANKNIFTY
candle_interval: 60
order_qty: 2
risk:
  max_trades_per_day: 3
stop:
  trail_start_profit: 20
  trail_step: 10
  trailing_sl_distance: 15
  target_points: 50
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.SelectedIndex != "BANKNIFTY" || cfg.CandleInterval != 60 || cfg.OrderQty != 2 {
		t.Errorf("explicit values not applied: %+v", cfg)
	}
	if cfg.Risk.MaxTradesPerDay != 3 {
		t.Errorf("risk override not applied: %+v", cfg.Risk)
	}
	if cfg.Risk.DailyMaxLoss != 2000 || cfg.Session.SquareoffTime != "15:25" {
		t.Errorf("defaults not filled in: %+v", cfg)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
