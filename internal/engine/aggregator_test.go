package engine

import (
	"testing"
	"time"

	"options-trading-bot/internal/types"
)

func tickAt(base time.Time, offsetSec int, price float64) types.Tick {
	return types.Tick{Ts: base.Add(time.Duration(offsetSec) * time.Second), LTP: price}
}

func addLTP(a *candleAggregator, tk types.Tick) (types.Candle, bool) {
	return a.Add(tk, tk.LTP)
}

func TestAggregatorBuildsOHLC(t *testing.T) {
	base := time.Unix(1000, 0) // aligned to the 5s bucket boundary
	a := newCandleAggregator(5)

	if _, done := addLTP(a, tickAt(base, 0, 100)); done {
		t.Fatal("first tick must not finalize a candle")
	}
	addLTP(a, tickAt(base, 1, 104))
	addLTP(a, tickAt(base, 2, 97))
	addLTP(a, tickAt(base, 4, 101))

	c, done := addLTP(a, tickAt(base, 5, 102))
	if !done {
		t.Fatal("tick in the next bucket should finalize the candle")
	}
	if c.Open != 100 || c.High != 104 || c.Low != 97 || c.Close != 101 {
		t.Fatalf("unexpected OHLC: %+v", c)
	}
	if !c.Start.Equal(base) || !c.End.Equal(base.Add(5*time.Second)) {
		t.Fatalf("unexpected bounds: start=%s end=%s", c.Start, c.End)
	}
}

func TestAggregatorGapFinalizesOnce(t *testing.T) {
	base := time.Unix(1000, 0)
	a := newCandleAggregator(5)

	addLTP(a, tickAt(base, 0, 100))
	addLTP(a, tickAt(base, 6, 110))

	// 3 empty buckets pass before the next tick; exactly one candle
	// comes out, covering the bucket that had data.
	c, done := addLTP(a, tickAt(base, 23, 120))
	if !done {
		t.Fatal("expected the gapped candle to finalize")
	}
	if c.Open != 110 || c.Close != 110 {
		t.Fatalf("unexpected candle after gap: %+v", c)
	}
	if !c.Start.Equal(base.Add(5 * time.Second)) {
		t.Fatalf("unexpected start after gap: %s", c.Start)
	}

	// And the new bucket is live with the latest tick.
	c2, done := addLTP(a, tickAt(base, 25, 121))
	if !done {
		t.Fatal("expected candle for the 20-25 bucket")
	}
	if c2.Open != 120 {
		t.Fatalf("unexpected open: %+v", c2)
	}
}

func TestAggregatorOutOfOrderTickFolds(t *testing.T) {
	base := time.Unix(1000, 0)
	a := newCandleAggregator(5)

	addLTP(a, tickAt(base, 5, 100))
	if _, done := addLTP(a, tickAt(base, 3, 95)); done {
		t.Fatal("late tick must not finalize anything")
	}
	c, _ := addLTP(a, tickAt(base, 10, 101))
	if c.Low != 95 {
		t.Fatalf("late tick should fold into the open candle, got %+v", c)
	}
}

func TestAggregatorResetOnIntervalChange(t *testing.T) {
	base := time.Unix(1000, 0)
	a := newCandleAggregator(5)

	addLTP(a, tickAt(base, 0, 100))
	a.Reset(15)

	// The partial 5s candle is gone; the next finalize happens on the
	// 15s grid.
	if _, done := addLTP(a, tickAt(base, 5, 101)); done {
		t.Fatal("no candle should survive a reset")
	}
	c, done := addLTP(a, tickAt(base, 20, 105))
	if !done {
		t.Fatal("expected candle on the 15s grid")
	}
	if c.Open != 101 {
		t.Fatalf("candle should start from the post-reset tick, got %+v", c)
	}
}
