package ta

import "math"

// SuperTrend computes the ATR-band trend indicator incrementally, one
// closed candle at a time. ATR uses Wilder smoothing seeded with a simple
// average of the first `period` true ranges. The final bands only ever
// tighten toward price until the trend flips.
type SuperTrend struct {
	period int
	mult   float64

	count     int
	prevClose float64
	trSum     float64
	atr       float64

	upper, lower float64
	dir          int
	value        float64
	seeded       bool
}

func NewSuperTrend(period int, mult float64) *SuperTrend {
	return &SuperTrend{period: period, mult: mult}
}

func (s *SuperTrend) Reset() {
	*s = SuperTrend{period: s.period, mult: s.mult}
}

// Value returns the current band value, direction (+1/-1) and readiness.
func (s *SuperTrend) Value() (float64, int, bool) {
	if !s.seeded {
		return math.NaN(), 0, false
	}
	return s.value, s.dir, true
}

// Update feeds one closed candle. It returns the band value, the trend
// direction (+1 bullish, -1 bearish) and false until `period` candles
// have been seen.
func (s *SuperTrend) Update(high, low, close float64) (float64, int, bool) {
	s.count++

	tr := high - low
	if s.count > 1 {
		tr = math.Max(tr, math.Max(math.Abs(high-s.prevClose), math.Abs(low-s.prevClose)))
	}

	if s.count < s.period {
		s.trSum += tr
		s.prevClose = close
		return math.NaN(), 0, false
	}

	if !s.seeded {
		s.atr = (s.trSum + tr) / float64(s.period)
	} else {
		s.atr = (s.atr*float64(s.period-1) + tr) / float64(s.period)
	}

	hl2 := (high + low) / 2
	basicUpper := hl2 + s.mult*s.atr
	basicLower := hl2 - s.mult*s.atr

	if !s.seeded {
		s.upper = basicUpper
		s.lower = basicLower
		if close > s.upper {
			s.dir = 1
		} else {
			s.dir = -1
		}
		s.seeded = true
	} else {
		// Bands ratchet: lower may only rise, upper may only fall,
		// unless the prior close already broke through.
		if basicLower > s.lower || s.prevClose < s.lower {
			s.lower = basicLower
		}
		if basicUpper < s.upper || s.prevClose > s.upper {
			s.upper = basicUpper
		}
		if s.dir == 1 {
			if close < s.lower {
				s.dir = -1
			}
		} else {
			if close > s.upper {
				s.dir = 1
			}
		}
	}

	if s.dir == 1 {
		s.value = s.lower
	} else {
		s.value = s.upper
	}
	s.prevClose = close
	return s.value, s.dir, true
}
