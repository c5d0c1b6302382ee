package market

import (
	"math"

	"options-trading-bot/internal/types"
)

const (
	maxTimeValue  = 150.0 // ATM option time value, rupees
	timeValueDist = 500.0 // points of moneyness over which time value decays to zero
	priceTick     = 0.05
)

// EstimateOptionPrice models an option premium from the index spot:
// intrinsic value plus a time value that peaks at the money and decays
// linearly with distance from the strike. Used for paper fills and the
// simulated feed; never for live orders.
func EstimateOptionPrice(spot float64, strike int, leg types.Leg) float64 {
	k := float64(strike)
	var intrinsic float64
	if leg == types.LegPE {
		intrinsic = math.Max(0, k-spot)
	} else {
		intrinsic = math.Max(0, spot-k)
	}

	dist := math.Abs(spot - k)
	timeValue := maxTimeValue * math.Max(0, 1-dist/timeValueDist)

	price := math.Round((intrinsic+timeValue)/priceTick) * priceTick
	if price < priceTick {
		price = priceTick
	}
	return price
}
