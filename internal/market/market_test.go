package market

import (
	"testing"
	"time"

	"options-trading-bot/internal/types"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != Clock(9*60+25) {
		t.Fatalf("want 565 minutes, got %d", c)
	}

	for _, bad := range []string{"", "abc", "25:00", "09:75"} {
		if _, err := ParseClock(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestClockCutoffs(t *testing.T) {
	cutoff, _ := ParseClock("15:10")
	before := time.Date(2026, 8, 24, 15, 9, 59, 0, IST)
	at := time.Date(2026, 8, 24, 15, 10, 0, 0, IST)

	if !cutoff.Before(before) {
		t.Error("15:09 should be before the 15:10 cutoff")
	}
	if cutoff.Before(at) {
		t.Error("15:10 should not be before the 15:10 cutoff")
	}
	if !cutoff.Reached(at) {
		t.Error("15:10 should have reached the cutoff")
	}
}

func TestIsOpen(t *testing.T) {
	cases := []struct {
		t    time.Time
		want bool
	}{
		{time.Date(2026, 8, 24, 10, 0, 0, 0, IST), true},   // Monday mid-session
		{time.Date(2026, 8, 24, 9, 14, 0, 0, IST), false},  // before open
		{time.Date(2026, 8, 24, 15, 31, 0, 0, IST), false}, // after close
		{time.Date(2026, 8, 22, 10, 0, 0, 0, IST), false},  // Saturday
		{time.Date(2026, 8, 23, 10, 0, 0, 0, IST), false},  // Sunday
	}
	for _, c := range cases {
		if got := IsOpen(c.t); got != c.want {
			t.Errorf("IsOpen(%s) = %v, want %v", c.t, got, c.want)
		}
	}
}

func TestLookupAndLotSizes(t *testing.T) {
	cases := []struct {
		name    string
		lot     int
		strike  int
		weekday time.Weekday
		rule    ExpiryRule
	}{
		{"NIFTY", 65, 50, time.Tuesday, ExpiryWeekly},
		{"BANKNIFTY", 30, 100, time.Tuesday, ExpiryMonthlyLast},
		{"SENSEX", 20, 100, time.Thursday, ExpiryWeekly},
		{"FINNIFTY", 60, 50, time.Tuesday, ExpiryMonthlyLast},
	}
	for _, c := range cases {
		idx, ok := Lookup(c.name)
		if !ok {
			t.Fatalf("%s not found", c.name)
		}
		if idx.LotSize != c.lot || idx.StrikeInterval != c.strike || idx.Weekday != c.weekday || idx.Rule != c.rule {
			t.Errorf("%s: got %+v", c.name, idx)
		}
	}

	if _, ok := Lookup("MIDCPNIFTY"); ok {
		t.Error("unknown index should not resolve")
	}
	if _, ok := Lookup("nifty"); !ok {
		t.Error("lookup should be case-insensitive")
	}
}

func TestRoundToStrike(t *testing.T) {
	nifty, _ := Lookup("NIFTY")
	if got := nifty.RoundToStrike(22526); got != 22550 {
		t.Errorf("22526 -> %d, want 22550", got)
	}
	if got := nifty.RoundToStrike(22524); got != 22500 {
		t.Errorf("22524 -> %d, want 22500", got)
	}

	bank, _ := Lookup("BANKNIFTY")
	if got := bank.RoundToStrike(48449); got != 48400 {
		t.Errorf("48449 -> %d, want 48400", got)
	}
}

func TestNextExpiryWeekly(t *testing.T) {
	nifty, _ := Lookup("NIFTY")

	// Monday -> next day's Tuesday expiry.
	mon := time.Date(2026, 8, 24, 10, 0, 0, 0, IST)
	if got := nifty.NextExpiry(mon).Format("2006-01-02"); got != "2026-08-25" {
		t.Errorf("from Monday: got %s, want 2026-08-25", got)
	}

	// Expiry day before the close still expires today.
	tue := time.Date(2026, 8, 25, 11, 0, 0, 0, IST)
	if got := nifty.NextExpiry(tue).Format("2006-01-02"); got != "2026-08-25" {
		t.Errorf("on expiry day: got %s, want 2026-08-25", got)
	}

	// After the session close it rolls a week.
	tueEve := time.Date(2026, 8, 25, 16, 0, 0, 0, IST)
	if got := nifty.NextExpiry(tueEve).Format("2006-01-02"); got != "2026-09-01" {
		t.Errorf("after close on expiry day: got %s, want 2026-09-01", got)
	}
}

func TestNextExpiryMonthlyLast(t *testing.T) {
	bank, _ := Lookup("BANKNIFTY")

	// Last Tuesday of August 2026 is the 25th.
	mon := time.Date(2026, 8, 24, 10, 0, 0, 0, IST)
	if got := bank.NextExpiry(mon).Format("2006-01-02"); got != "2026-08-25" {
		t.Errorf("got %s, want 2026-08-25", got)
	}

	// Past it, roll to the last Tuesday of September.
	wed := time.Date(2026, 8, 26, 10, 0, 0, 0, IST)
	if got := bank.NextExpiry(wed).Format("2006-01-02"); got != "2026-09-29" {
		t.Errorf("got %s, want 2026-09-29", got)
	}
}

func TestEstimateOptionPrice(t *testing.T) {
	// ATM carries full time value and no intrinsic.
	if got := EstimateOptionPrice(22500, 22500, types.LegCE); got != 150 {
		t.Errorf("ATM CE: got %v, want 150", got)
	}

	// 100 points ITM: intrinsic 100 + decayed time value 120.
	if got := EstimateOptionPrice(22600, 22500, types.LegCE); got != 220 {
		t.Errorf("ITM CE: got %v, want 220", got)
	}
	if got := EstimateOptionPrice(22400, 22500, types.LegPE); got != 220 {
		t.Errorf("ITM PE: got %v, want 220", got)
	}

	// Deep OTM floors at one tick.
	if got := EstimateOptionPrice(22500, 23500, types.LegCE); got != 0.05 {
		t.Errorf("deep OTM: got %v, want 0.05", got)
	}
}

func TestSessionDate(t *testing.T) {
	// 23:30 UTC on the 24th is already the 25th in IST.
	ts := time.Date(2026, 8, 24, 23, 30, 0, 0, time.UTC)
	if got := SessionDate(ts); got != "2026-08-25" {
		t.Errorf("got %s, want 2026-08-25", got)
	}
}

func TestSessionBounds(t *testing.T) {
	ts := time.Date(2026, 8, 24, 23, 30, 0, 0, time.UTC)
	start, end := SessionBounds(ts)
	if SessionDate(start) != SessionDate(ts) {
		t.Errorf("bounds should cover the IST date of ts, got start %v", start)
	}
	if !start.Before(ts) || !ts.Before(end) {
		t.Errorf("ts must fall in [start, end): %v not in [%v, %v)", ts, start, end)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Errorf("want a 24h window, got %v", end.Sub(start))
	}
}
