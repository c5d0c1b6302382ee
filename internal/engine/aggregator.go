package engine

import (
	"time"

	"options-trading-bot/internal/types"
)

// candleAggregator folds raw ticks into fixed-interval OHLC candles.
// Buckets are aligned to the epoch: a tick at time t belongs to the
// bucket floor(unix(t)/interval). When a tick lands in a later bucket
// the in-progress candle is finalized exactly once, however long the
// gap was.
type candleAggregator struct {
	interval time.Duration

	bucket  int64 // current bucket id, -1 when empty
	cur     types.Candle
	hasTick bool
}

func newCandleAggregator(intervalSec int) *candleAggregator {
	return &candleAggregator{interval: time.Duration(intervalSec) * time.Second, bucket: -1}
}

// Reset drops any in-progress candle. Called on interval change and at
// day rollover; partial candles never cross either boundary.
func (a *candleAggregator) Reset(intervalSec int) {
	a.interval = time.Duration(intervalSec) * time.Second
	a.bucket = -1
	a.hasTick = false
}

// Add feeds one tick. When the tick opens a new bucket, the previous
// candle is returned finalized.
func (a *candleAggregator) Add(tick types.Tick, price float64) (types.Candle, bool) {
	b := tick.Ts.Unix() / int64(a.interval/time.Second)

	if !a.hasTick {
		a.start(b, tick.Ts, price)
		return types.Candle{}, false
	}

	if b == a.bucket {
		if price > a.cur.High {
			a.cur.High = price
		}
		if price < a.cur.Low {
			a.cur.Low = price
		}
		a.cur.Close = price
		return types.Candle{}, false
	}

	// Out-of-order ticks fold into the current candle rather than
	// resurrecting a finalized one.
	if b < a.bucket {
		if price > a.cur.High {
			a.cur.High = price
		}
		if price < a.cur.Low {
			a.cur.Low = price
		}
		a.cur.Close = price
		return types.Candle{}, false
	}

	done := a.cur
	done.End = time.Unix((a.bucket+1)*int64(a.interval/time.Second), 0).In(done.Start.Location())
	a.start(b, tick.Ts, price)
	return done, true
}

func (a *candleAggregator) start(bucket int64, ts time.Time, price float64) {
	sec := int64(a.interval / time.Second)
	a.bucket = bucket
	a.cur = types.Candle{
		Open:  price,
		High:  price,
		Low:   price,
		Close: price,
		Start: time.Unix(bucket*sec, 0).In(ts.Location()),
	}
	a.hasTick = true
}
