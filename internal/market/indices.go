package market

import (
	"math"
	"strings"
	"time"
)

// ExpiryRule selects how an index's option expiry is derived.
type ExpiryRule int

const (
	ExpiryWeekly      ExpiryRule = iota // every week on Weekday
	ExpiryMonthlyLast                   // last Weekday of the month
)

// Index is one row of the static instrument master.
type Index struct {
	Name           string
	LotSize        int
	StrikeInterval int
	Weekday        time.Weekday
	Rule           ExpiryRule
	Segment        string // derivatives segment for order routing
	Token          uint32 // index instrument token on the feed
}

var indices = map[string]Index{
	"NIFTY":     {Name: "NIFTY", LotSize: 65, StrikeInterval: 50, Weekday: time.Tuesday, Rule: ExpiryWeekly, Segment: "NFO", Token: 256265},
	"BANKNIFTY": {Name: "BANKNIFTY", LotSize: 30, StrikeInterval: 100, Weekday: time.Tuesday, Rule: ExpiryMonthlyLast, Segment: "NFO", Token: 260105},
	"SENSEX":    {Name: "SENSEX", LotSize: 20, StrikeInterval: 100, Weekday: time.Thursday, Rule: ExpiryWeekly, Segment: "BFO", Token: 265},
	"FINNIFTY":  {Name: "FINNIFTY", LotSize: 60, StrikeInterval: 50, Weekday: time.Tuesday, Rule: ExpiryMonthlyLast, Segment: "NFO", Token: 257801},
}

// Lookup returns the instrument row for an index code.
func Lookup(name string) (Index, bool) {
	idx, ok := indices[strings.ToUpper(name)]
	return idx, ok
}

// Names lists the known index codes.
func Names() []string {
	return []string{"NIFTY", "BANKNIFTY", "SENSEX", "FINNIFTY"}
}

// RoundToStrike rounds an index price to the nearest tradable strike.
func (i Index) RoundToStrike(ltp float64) int {
	step := float64(i.StrikeInterval)
	return int(math.Round(ltp/step) * step)
}

// NextExpiry computes the next option expiry date for the index. Weekly
// rules roll to the following week once the expiry day's session is over;
// monthly-last rules roll to the next month.
func (i Index) NextExpiry(now time.Time) time.Time {
	now = now.In(IST)
	switch i.Rule {
	case ExpiryMonthlyLast:
		d := lastWeekdayOfMonth(now.Year(), now.Month(), i.Weekday)
		if now.After(sessionClose(d)) {
			next := now.AddDate(0, 1, 0)
			d = lastWeekdayOfMonth(next.Year(), next.Month(), i.Weekday)
		}
		return d
	default:
		days := (int(i.Weekday) - int(now.Weekday()) + 7) % 7
		d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, IST).AddDate(0, 0, days)
		if days == 0 && now.After(sessionClose(d)) {
			d = d.AddDate(0, 0, 7)
		}
		return d
	}
}

func lastWeekdayOfMonth(year int, month time.Month, wd time.Weekday) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, IST).AddDate(0, 0, -1)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func sessionClose(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 15, 30, 0, 0, IST)
}
