package engine

import "options-trading-bot/internal/types"

// signalGenerator turns indicator snapshots from one candle series into
// discrete trade signals. Entries need confluence on the same candle: a
// SuperTrend flip confirmed by the MACD histogram agreeing with the new
// direction. Exits need only one indicator turning against the held
// leg, so an exit always beats a same-candle entry.
//
// bullLeg/bearLeg map series direction to an option leg. The index
// series maps bull->CE and bear->PE; a per-option series maps its own
// leg on the bull side only.
type signalGenerator struct {
	bullLeg types.Leg
	bearLeg types.Leg

	prevHist float64
	hasPrev  bool
}

func newSignalGenerator(bullLeg, bearLeg types.Leg) *signalGenerator {
	return &signalGenerator{bullLeg: bullLeg, bearLeg: bearLeg}
}

func (g *signalGenerator) Reset() {
	g.prevHist = 0
	g.hasPrev = false
}

// Evaluate consumes the snapshot for one closed candle. held is the leg
// of the open position attributed to this series, or "" when flat.
func (g *signalGenerator) Evaluate(snap types.IndicatorSnapshot, held types.Leg) types.Signal {
	if !snap.Ready {
		return types.Signal{Kind: types.SignalNone, Reason: "indicators_warming_up"}
	}

	crossUp := g.hasPrev && g.prevHist <= 0 && snap.MACDHist > 0
	crossDown := g.hasPrev && g.prevHist >= 0 && snap.MACDHist < 0
	g.prevHist = snap.MACDHist
	g.hasPrev = true

	if held != "" {
		switch held {
		case g.bullLeg:
			if snap.Flipped && snap.SuperTrendDir == -1 {
				return types.Signal{Kind: types.SignalExit, Reason: "supertrend_flip_bearish"}
			}
			if crossDown {
				return types.Signal{Kind: types.SignalExit, Reason: "macd_cross_down"}
			}
		case g.bearLeg:
			if snap.Flipped && snap.SuperTrendDir == 1 {
				return types.Signal{Kind: types.SignalExit, Reason: "supertrend_flip_bullish"}
			}
			if crossUp {
				return types.Signal{Kind: types.SignalExit, Reason: "macd_cross_up"}
			}
		}
		return types.Signal{Kind: types.SignalNone, Reason: "holding"}
	}

	if g.bullLeg != "" && snap.Flipped && snap.SuperTrendDir == 1 && snap.MACDHist > 0 {
		return types.Signal{Kind: buyKind(g.bullLeg), Reason: "supertrend_flip_bullish"}
	}
	if g.bearLeg != "" && snap.Flipped && snap.SuperTrendDir == -1 && snap.MACDHist < 0 {
		return types.Signal{Kind: buyKind(g.bearLeg), Reason: "supertrend_flip_bearish"}
	}

	return types.Signal{Kind: types.SignalNone, Reason: "no_confluence"}
}

func buyKind(leg types.Leg) types.SignalKind {
	if leg == types.LegPE {
		return types.SignalBuyPE
	}
	return types.SignalBuyCE
}
