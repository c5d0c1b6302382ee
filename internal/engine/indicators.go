package engine

import (
	"options-trading-bot/internal/ta"
	"options-trading-bot/internal/types"
)

// indicatorSet is one SuperTrend + MACD pair fed by a single candle
// series. Flip detection compares the direction against the previous
// closed candle.
type indicatorSet struct {
	st   *ta.SuperTrend
	macd *ta.MACD

	prevDir int
	last    types.IndicatorSnapshot
}

func newIndicatorSet(stPeriod int, stMult float64, macdFast, macdSlow, macdSignal int) *indicatorSet {
	return &indicatorSet{
		st:   ta.NewSuperTrend(stPeriod, stMult),
		macd: ta.NewMACD(macdFast, macdSlow, macdSignal),
	}
}

func (s *indicatorSet) Reset() {
	s.st.Reset()
	s.macd.Reset()
	s.prevDir = 0
	s.last = types.IndicatorSnapshot{}
}

// Update feeds one closed candle and returns the new snapshot. Ready
// stays false until both indicators have enough history; Flipped is
// only ever true on a candle where SuperTrend changed direction.
func (s *indicatorSet) Update(c types.Candle) types.IndicatorSnapshot {
	stVal, dir, stOK := s.st.Update(c.High, c.Low, c.Close)
	line, sig, hist, macdOK := s.macd.Update(c.Close)

	snap := types.IndicatorSnapshot{Ready: stOK && macdOK}
	if snap.Ready {
		snap.SuperTrend = stVal
		snap.SuperTrendDir = dir
		snap.Flipped = s.prevDir != 0 && dir != s.prevDir
		snap.MACD = line
		snap.MACDSignal = sig
		snap.MACDHist = hist
	}
	if stOK {
		s.prevDir = dir
	}
	s.last = snap
	return snap
}

// Last returns the snapshot from the most recent closed candle.
func (s *indicatorSet) Last() types.IndicatorSnapshot { return s.last }
